package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/Pratik-Shirodkar/CasperEye/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig controls the HTTP API surface.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SchedulerConfig governs the refresh cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// Protocol describes one monitored staking protocol and its data source.
type Protocol struct {
	ID          string        `mapstructure:"id"`
	Name        string        `mapstructure:"name"`
	Source      string        `mapstructure:"source"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	FallbackAPY float64       `mapstructure:"fallback_apy"`
	FallbackTVL float64       `mapstructure:"fallback_tvl"`
}

// ArbitrageConfig tunes the opportunity engine.
type ArbitrageConfig struct {
	Protocols        []Protocol    `mapstructure:"protocols"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	SameProtocolFee  float64       `mapstructure:"same_protocol_fee"`
	CrossProtocolFee float64       `mapstructure:"cross_protocol_fee"`
	PositionSizes    []float64     `mapstructure:"position_sizes"`
	HistoryMaxPoints int           `mapstructure:"history_max_points"`
	RateLimitPerSec  float64       `mapstructure:"rate_limit_per_sec"`
	UserAgent        string        `mapstructure:"user_agent"`
}

// ForecastConfig tunes the unbonding forecast engine.
type ForecastConfig struct {
	Endpoints           []string      `mapstructure:"endpoints"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	FetchLimit          int           `mapstructure:"fetch_limit"`
	UnbondingPeriodDays int           `mapstructure:"unbonding_period_days"`
	HorizonDays         int           `mapstructure:"horizon_days"`
	WhaleAddresses      []string      `mapstructure:"whale_addresses"`
	SyntheticSeed       int64         `mapstructure:"synthetic_seed"`
}

// AlertingConfig defines supply-shock alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram bot channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CASPEREYE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "caspereye")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("scheduler.interval", "60s")
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("arbitrage.protocols", defaultProtocols())
	v.SetDefault("arbitrage.cache_ttl", "300s")
	v.SetDefault("arbitrage.same_protocol_fee", 0.0001)
	v.SetDefault("arbitrage.cross_protocol_fee", 0.0002)
	v.SetDefault("arbitrage.position_sizes", []float64{0.1, 0.5, 1.0, 5.0})
	v.SetDefault("arbitrage.history_max_points", 2880)
	v.SetDefault("arbitrage.rate_limit_per_sec", 5.0)
	v.SetDefault("arbitrage.user_agent", "caspereye/1.0")

	v.SetDefault("forecast.endpoints", []string{
		"https://babylon-testnet-api.polkachu.com",
		"https://babylon-testnet-lcd.allthatnode.com:1317",
		"https://babylon-testnet-api.stake-town.com",
	})
	v.SetDefault("forecast.request_timeout", "10s")
	v.SetDefault("forecast.fetch_limit", 200)
	v.SetDefault("forecast.unbonding_period_days", 21)
	v.SetDefault("forecast.horizon_days", 90)
	v.SetDefault("forecast.whale_addresses", []string{
		"0xabcd1234567890abcd1234567890abcd12345678",
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
		"0x4444444444444444444444444444444444444444",
		"0x5555555555555555555555555555555555555555",
	})
	v.SetDefault("forecast.synthetic_seed", int64(0))

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func defaultProtocols() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"id":           "babylon",
			"name":         "Babylon Native",
			"source":       "babylon",
			"base_url":     "https://babylon-testnet-api.polkachu.com",
			"timeout":      "1s",
			"fallback_apy": 5.5,
			"fallback_tvl": 2100.0,
		},
		{
			"id":           "defilama_babylon",
			"name":         "DefiLlama (Babylon)",
			"source":       "defillama",
			"base_url":     "https://yields.llama.fi",
			"timeout":      "3s",
			"fallback_apy": 5.2,
			"fallback_tvl": 1250.0,
		},
		{
			"id":           "coingecko",
			"name":         "CoinGecko (Market Data)",
			"source":       "coingecko",
			"base_url":     "https://api.coingecko.com/api/v3",
			"timeout":      "3s",
			"fallback_apy": 5.0,
			"fallback_tvl": 21000000.0,
		},
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if len(c.Arbitrage.Protocols) < 2 {
		return fmt.Errorf("arbitrage.protocols requires at least two entries")
	}
	seen := make(map[string]struct{}, len(c.Arbitrage.Protocols))
	for _, p := range c.Arbitrage.Protocols {
		if p.ID == "" {
			return fmt.Errorf("arbitrage.protocols entries require an id")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate protocol id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if c.Arbitrage.CacheTTL <= 0 {
		return fmt.Errorf("arbitrage.cache_ttl must be greater than zero")
	}
	if c.Arbitrage.SameProtocolFee < 0 || c.Arbitrage.CrossProtocolFee < 0 {
		return fmt.Errorf("gas fee constants cannot be negative")
	}
	if len(c.Arbitrage.PositionSizes) == 0 {
		return fmt.Errorf("arbitrage.position_sizes cannot be empty")
	}
	if c.Arbitrage.HistoryMaxPoints <= 0 {
		return fmt.Errorf("arbitrage.history_max_points must be greater than zero")
	}
	if len(c.Forecast.Endpoints) == 0 {
		return fmt.Errorf("forecast.endpoints cannot be empty")
	}
	if c.Forecast.FetchLimit <= 0 {
		return fmt.Errorf("forecast.fetch_limit must be greater than zero")
	}
	if c.Forecast.UnbondingPeriodDays <= 0 {
		return fmt.Errorf("forecast.unbonding_period_days must be greater than zero")
	}
	if len(c.Forecast.WhaleAddresses) == 0 {
		return fmt.Errorf("forecast.whale_addresses cannot be empty")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// ProtocolByID looks up a configured protocol by identifier.
func (c *ArbitrageConfig) ProtocolByID(id string) (Protocol, bool) {
	for _, p := range c.Protocols {
		if p.ID == id {
			return p, true
		}
	}
	return Protocol{}, false
}
