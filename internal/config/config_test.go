package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Alias1177/fastloop/models"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EntryThreshold != 0.05 || cfg.MinMomentumPct != 0.5 || cfg.MaxPosition != 5.0 {
		t.Errorf("unexpected numeric defaults: %+v", cfg)
	}
	if cfg.Asset != "BTC" || cfg.Window != "5m" || cfg.SignalSource != "binance" {
		t.Errorf("unexpected string defaults: %+v", cfg)
	}
	if !cfg.VolumeConfidence {
		t.Errorf("VolumeConfidence = false, want true")
	}
}

func TestLoadLayerPrecedence(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvEntryThreshold, "0.08")
	t.Setenv(EnvMinMomentum, "0.3")
	t.Setenv(EnvAsset, "eth")
	t.Setenv(EnvVolumeConfidence, "false")

	path := writeConfig(t, `{"entry_threshold": 0.1, "window": "15m"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EntryThreshold != 0.1 {
		t.Errorf("EntryThreshold = %v, want file value 0.1", cfg.EntryThreshold)
	}
	if cfg.MinMomentumPct != 0.3 {
		t.Errorf("MinMomentumPct = %v, want env value 0.3", cfg.MinMomentumPct)
	}
	if cfg.Asset != "ETH" {
		t.Errorf("Asset = %q, want ETH", cfg.Asset)
	}
	if cfg.Window != "15m" {
		t.Errorf("Window = %q, want 15m", cfg.Window)
	}
	if cfg.VolumeConfidence {
		t.Errorf("VolumeConfidence = true, want env value false")
	}
	if cfg.MaxPosition != 5.0 {
		t.Errorf("MaxPosition = %v, want default 5.0", cfg.MaxPosition)
	}
}

func TestLoadMalformedEnvFallsBack(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvMaxPosition, "lots")
	t.Setenv(EnvLookback, "ten")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxPosition != 5.0 {
		t.Errorf("MaxPosition = %v, want 5.0", cfg.MaxPosition)
	}
	if cfg.LookbackMinutes != 5 {
		t.Errorf("LookbackMinutes = %d, want 5", cfg.LookbackMinutes)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("Load() error = nil, want error for missing explicit file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *models.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *models.Config) {}},
		{name: "bad window", mutate: func(c *models.Config) { c.Window = "1h" }, wantErr: true},
		{name: "bad asset", mutate: func(c *models.Config) { c.Asset = "DOGE" }, wantErr: true},
		{name: "bad source", mutate: func(c *models.Config) { c.SignalSource = "kraken" }, wantErr: true},
		{name: "negative threshold", mutate: func(c *models.Config) { c.EntryThreshold = -0.1 }, wantErr: true},
		{name: "zero position", mutate: func(c *models.Config) { c.MaxPosition = 0 }, wantErr: true},
		{name: "zero lookback", mutate: func(c *models.Config) { c.LookbackMinutes = 0 }, wantErr: true},
		{name: "max lookback", mutate: func(c *models.Config) { c.LookbackMinutes = models.MaxLookbackMinutes }},
		{name: "lookback beyond one page", mutate: func(c *models.Config) { c.LookbackMinutes = models.MaxLookbackMinutes + 1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
