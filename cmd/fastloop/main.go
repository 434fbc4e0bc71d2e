package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/fastloop/internal/config"
	"github.com/Alias1177/fastloop/internal/feed"
	"github.com/Alias1177/fastloop/internal/journal"
	"github.com/Alias1177/fastloop/internal/market"
	"github.com/Alias1177/fastloop/internal/notify"
	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/internal/runner"
	"github.com/Alias1177/fastloop/internal/trading"
	"github.com/Alias1177/fastloop/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	live := flag.Bool("live", false, "submit real orders (default is dry run)")
	positions := flag.Bool("positions", false, "show open fast market positions and exit")
	quiet := flag.Bool("quiet", false, "only print trades and errors")
	configPath := flag.String("config", "", "path to a JSON config file (default ./config.json if present)")
	schedule := flag.String("schedule", "", `repeat on a cron schedule, e.g. "@every 1m" or "*/5 * * * *"`)
	flag.Parse()

	setupLogger("info", *quiet)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}
	if *schedule != "" {
		cfg.Schedule = *schedule
	}
	setupLogger(cfg.LogLevel, *quiet)

	if (*live || *positions) && cfg.APIKey == "" {
		log.Error().Msgf("%s is required for --live and --positions (get one at simmer.markets/dashboard)", config.EnvAPIKey)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := phttp.NewClient(phttp.ClientOptions{
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})
	api := trading.NewClient(httpClient, cfg.APIURL, cfg.APIKey)

	if *positions {
		if _, err := trading.NewReporter(api, cfg.Asset, os.Stdout).Report(ctx); err != nil {
			log.Error().Err(err).Msg("failed to fetch positions")
			return 1
		}
		return 0
	}

	prices, err := feed.NewChain(cfg.SignalSource, httpClient)
	if err != nil {
		log.Error().Err(err).Msg("price feed setup failed")
		return 1
	}
	locator, err := market.NewLocator(httpClient, cfg.GammaURL, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("market locator setup failed")
		return 1
	}

	j := openJournal(*cfg)
	defer j.Close()

	deps := runner.Deps{
		Feed:     prices,
		Markets:  locator,
		Executor: trading.NewExecutor(api, j, *live, os.Stdout),
		Out:      os.Stdout,
	}
	if api.HasKey() {
		deps.Balance = api
	}
	r := runner.New(*cfg, deps, *quiet)

	if !*quiet {
		mode := "DRY RUN"
		if *live {
			mode = "LIVE"
		}
		fmt.Printf("fastloop [%s] %s %s, source %s, lookback %dm\n",
			mode, cfg.Asset, cfg.Window, cfg.SignalSource, cfg.LookbackMinutes)
	}

	if cfg.Schedule != "" {
		s, err := runner.NewScheduler(cfg.Schedule, func(ctx context.Context) error {
			_, err := r.RunOnce(ctx)
			return err
		})
		if err != nil {
			log.Error().Err(err).Msg("invalid schedule")
			return 1
		}
		if err := s.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler failed")
			return 1
		}
		return 0
	}

	if _, err := r.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("cycle failed")
		return 1
	}
	return 0
}

func setupLogger(level string, quiet bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if quiet && lvl < zerolog.WarnLevel {
		lvl = zerolog.WarnLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

// openJournal builds every configured sink. A sink that fails to open is
// logged and left out; trading never depends on the journal.
func openJournal(cfg models.Config) journal.Journal {
	sinks, err := journal.FromConfig(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("trade journal unavailable")
	}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("telegram notifications unavailable")
		} else {
			sinks = append(sinks, tg)
		}
	}
	return journal.NewMulti(sinks...)
}
