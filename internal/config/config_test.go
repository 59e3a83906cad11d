package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults should load cleanly: %v", err)
	}

	if cfg.Arbitrage.CacheTTL != 300*time.Second {
		t.Fatalf("expected 300s cache TTL, got %s", cfg.Arbitrage.CacheTTL)
	}
	if cfg.Arbitrage.SameProtocolFee != 0.0001 || cfg.Arbitrage.CrossProtocolFee != 0.0002 {
		t.Fatalf("unexpected fee defaults: %+v", cfg.Arbitrage)
	}
	if len(cfg.Arbitrage.PositionSizes) != 4 {
		t.Fatalf("expected 4 position sizes, got %v", cfg.Arbitrage.PositionSizes)
	}
	if len(cfg.Arbitrage.Protocols) != 3 {
		t.Fatalf("expected 3 default protocols, got %d", len(cfg.Arbitrage.Protocols))
	}

	proto, ok := cfg.Arbitrage.ProtocolByID("defilama_babylon")
	if !ok {
		t.Fatal("defilama_babylon should be configured by default")
	}
	if proto.FallbackAPY != 5.2 || proto.FallbackTVL != 1250 {
		t.Fatalf("unexpected fallback values: %+v", proto)
	}

	if cfg.Forecast.UnbondingPeriodDays != 21 {
		t.Fatalf("expected 21-day unbonding period, got %d", cfg.Forecast.UnbondingPeriodDays)
	}
	if cfg.Forecast.HorizonDays != 90 {
		t.Fatalf("expected 90-day horizon, got %d", cfg.Forecast.HorizonDays)
	}
	if len(cfg.Forecast.Endpoints) == 0 || len(cfg.Forecast.WhaleAddresses) == 0 {
		t.Fatal("forecast endpoints and whale addresses must have defaults")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  addr: ":9999"
arbitrage:
  cache_ttl: 60s
forecast:
  synthetic_seed: 42
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("file value should override default, got %s", cfg.Server.Addr)
	}
	if cfg.Arbitrage.CacheTTL != time.Minute {
		t.Fatalf("expected 60s TTL from file, got %s", cfg.Arbitrage.CacheTTL)
	}
	if cfg.Forecast.SyntheticSeed != 42 {
		t.Fatalf("expected seed 42, got %d", cfg.Forecast.SyntheticSeed)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Arbitrage.Protocols) != 3 {
		t.Fatalf("defaults should survive a partial file, got %d protocols", len(cfg.Arbitrage.Protocols))
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("defaults: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }},
		{"single protocol", func(c *Config) { c.Arbitrage.Protocols = c.Arbitrage.Protocols[:1] }},
		{"blank protocol id", func(c *Config) { c.Arbitrage.Protocols[0].ID = "" }},
		{"duplicate protocol id", func(c *Config) { c.Arbitrage.Protocols[1].ID = c.Arbitrage.Protocols[0].ID }},
		{"zero ttl", func(c *Config) { c.Arbitrage.CacheTTL = 0 }},
		{"negative fee", func(c *Config) { c.Arbitrage.CrossProtocolFee = -1 }},
		{"no position sizes", func(c *Config) { c.Arbitrage.PositionSizes = nil }},
		{"zero history cap", func(c *Config) { c.Arbitrage.HistoryMaxPoints = 0 }},
		{"no endpoints", func(c *Config) { c.Forecast.Endpoints = nil }},
		{"zero unbonding period", func(c *Config) { c.Forecast.UnbondingPeriodDays = 0 }},
		{"no whales", func(c *Config) { c.Forecast.WhaleAddresses = nil }},
		{"telegram without token", func(c *Config) { c.Alerting.Telegram.Enabled = true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
