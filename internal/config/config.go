package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/Alias1177/fastloop/models"
)

// DefaultFile is looked up in the working directory when no --config path is given.
const DefaultFile = "config.json"

// Environment variable names, one per tunable key.
const (
	EnvEntryThreshold   = "SIMMER_SPRINT_ENTRY"
	EnvMinMomentum      = "SIMMER_SPRINT_MOMENTUM"
	EnvMaxPosition      = "SIMMER_SPRINT_MAX_POSITION"
	EnvSignalSource     = "SIMMER_SPRINT_SIGNAL"
	EnvLookback         = "SIMMER_SPRINT_LOOKBACK"
	EnvMinTimeRemaining = "SIMMER_SPRINT_MIN_TIME"
	EnvAsset            = "SIMMER_SPRINT_ASSET"
	EnvWindow           = "SIMMER_SPRINT_WINDOW"
	EnvVolumeConfidence = "SIMMER_SPRINT_VOL_CONF"
	EnvSchedule         = "SIMMER_SPRINT_SCHEDULE"

	EnvAPIKey         = "SIMMER_API_KEY"
	EnvAPIURL         = "SIMMER_API_URL"
	EnvGammaURL       = "GAMMA_API_URL"
	EnvLogLevel       = "LOG_LEVEL"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvJournalPath    = "JOURNAL_PATH"
	EnvJournalDSN     = "JOURNAL_DSN"
	EnvTelegramToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
)

// Defaults returns the built-in configuration layer.
func Defaults() models.Config {
	return models.Config{
		EntryThreshold:   0.05,
		MinMomentumPct:   0.5,
		MaxPosition:      5.0,
		SignalSource:     "binance",
		LookbackMinutes:  5,
		MinTimeRemaining: 60,
		Asset:            "BTC",
		Window:           "5m",
		VolumeConfidence: true,

		APIURL:         "https://api.simmer.markets",
		GammaURL:       "https://gamma-api.polymarket.com",
		LogLevel:       "info",
		RequestTimeout: 15,
	}
}

// Load resolves the configuration: defaults, then environment variables
// (including an optional .env file), then the JSON config file. Later layers
// win. An empty path means DefaultFile if it exists.
func Load(path string) (*models.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg := Defaults()
	ApplyEnv(&cfg)
	if err := ApplyFile(&cfg, path); err != nil {
		return nil, err
	}
	cfg.Asset = strings.ToUpper(strings.TrimSpace(cfg.Asset))
	cfg.SignalSource = strings.ToLower(strings.TrimSpace(cfg.SignalSource))
	cfg.Window = strings.ToLower(strings.TrimSpace(cfg.Window))

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides cfg with any environment variables that are set.
// Malformed values are ignored with a warning.
func ApplyEnv(cfg *models.Config) {
	cfg.EntryThreshold = getEnvFloatWithDefault(EnvEntryThreshold, cfg.EntryThreshold)
	cfg.MinMomentumPct = getEnvFloatWithDefault(EnvMinMomentum, cfg.MinMomentumPct)
	cfg.MaxPosition = getEnvFloatWithDefault(EnvMaxPosition, cfg.MaxPosition)
	cfg.SignalSource = getEnvWithDefault(EnvSignalSource, cfg.SignalSource)
	cfg.LookbackMinutes = getEnvIntWithDefault(EnvLookback, cfg.LookbackMinutes)
	cfg.MinTimeRemaining = getEnvIntWithDefault(EnvMinTimeRemaining, cfg.MinTimeRemaining)
	cfg.Asset = getEnvWithDefault(EnvAsset, cfg.Asset)
	cfg.Window = getEnvWithDefault(EnvWindow, cfg.Window)
	cfg.VolumeConfidence = getEnvBoolWithDefault(EnvVolumeConfidence, cfg.VolumeConfidence)
	cfg.Schedule = getEnvWithDefault(EnvSchedule, cfg.Schedule)

	cfg.APIKey = getEnvWithDefault(EnvAPIKey, cfg.APIKey)
	cfg.APIURL = getEnvWithDefault(EnvAPIURL, cfg.APIURL)
	cfg.GammaURL = getEnvWithDefault(EnvGammaURL, cfg.GammaURL)
	cfg.LogLevel = getEnvWithDefault(EnvLogLevel, cfg.LogLevel)
	cfg.RequestTimeout = getEnvIntWithDefault(EnvRequestTimeout, cfg.RequestTimeout)
	cfg.JournalPath = getEnvWithDefault(EnvJournalPath, cfg.JournalPath)
	cfg.JournalDSN = getEnvWithDefault(EnvJournalDSN, cfg.JournalDSN)
	cfg.TelegramToken = getEnvWithDefault(EnvTelegramToken, cfg.TelegramToken)
	cfg.TelegramChatID = getEnvInt64WithDefault(EnvTelegramChatID, cfg.TelegramChatID)
}

// ApplyFile overrides cfg with the keys present in a JSON config file.
// A missing default file is not an error; a missing explicit path is.
func ApplyFile(cfg *models.Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if v.IsSet("entry_threshold") {
		cfg.EntryThreshold = v.GetFloat64("entry_threshold")
	}
	if v.IsSet("min_momentum_pct") {
		cfg.MinMomentumPct = v.GetFloat64("min_momentum_pct")
	}
	if v.IsSet("max_position") {
		cfg.MaxPosition = v.GetFloat64("max_position")
	}
	if v.IsSet("signal_source") {
		cfg.SignalSource = v.GetString("signal_source")
	}
	if v.IsSet("lookback_minutes") {
		cfg.LookbackMinutes = v.GetInt("lookback_minutes")
	}
	if v.IsSet("min_time_remaining") {
		cfg.MinTimeRemaining = v.GetInt("min_time_remaining")
	}
	if v.IsSet("asset") {
		cfg.Asset = v.GetString("asset")
	}
	if v.IsSet("window") {
		cfg.Window = v.GetString("window")
	}
	if v.IsSet("volume_confidence") {
		cfg.VolumeConfidence = v.GetBool("volume_confidence")
	}
	if v.IsSet("schedule") {
		cfg.Schedule = v.GetString("schedule")
	}

	log.Debug().Str("path", path).Msg("applied config file")
	return nil
}

// Validate rejects configurations the trader cannot run with.
func Validate(cfg models.Config) error {
	if _, err := models.WindowDuration(cfg.Window); err != nil {
		return err
	}
	switch cfg.Asset {
	case "BTC", "ETH", "SOL", "XRP":
	default:
		return fmt.Errorf("unsupported asset %q", cfg.Asset)
	}
	switch cfg.SignalSource {
	case "binance", "coinbase":
	default:
		return fmt.Errorf("unsupported signal source %q", cfg.SignalSource)
	}
	if cfg.EntryThreshold < 0 || cfg.EntryThreshold >= 0.5 {
		return fmt.Errorf("entry_threshold must be in [0, 0.5), got %v", cfg.EntryThreshold)
	}
	if cfg.MinMomentumPct < 0 {
		return fmt.Errorf("min_momentum_pct must be non-negative, got %v", cfg.MinMomentumPct)
	}
	if cfg.MaxPosition <= 0 {
		return fmt.Errorf("max_position must be positive, got %v", cfg.MaxPosition)
	}
	if cfg.LookbackMinutes < 1 || cfg.LookbackMinutes > models.MaxLookbackMinutes {
		return fmt.Errorf("lookback_minutes must be between 1 and %d, got %d", models.MaxLookbackMinutes, cfg.LookbackMinutes)
	}
	if cfg.MinTimeRemaining < 0 {
		return fmt.Errorf("min_time_remaining must be non-negative, got %d", cfg.MinTimeRemaining)
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring malformed integer")
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring malformed integer")
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring malformed number")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := strings.ToLower(strings.TrimSpace(os.Getenv(key))); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
