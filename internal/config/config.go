package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"cex-arb-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Venues    []VenueConfig   `mapstructure:"venues"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SchedulerConfig governs monitoring cadence.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	AlignToStart bool          `mapstructure:"align_to_start"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
	Immediate    bool          `mapstructure:"immediate"`
}

// MonitorConfig holds the spread-detection and alert-gating thresholds.
type MonitorConfig struct {
	ThresholdPct       float64       `mapstructure:"threshold_pct"`
	MinVolumeUSD       float64       `mapstructure:"min_volume_usd"`
	MaxAlertsPerCycle  int           `mapstructure:"max_alerts_per_cycle"`
	Cooldown           time.Duration `mapstructure:"cooldown"`
	SummaryEveryCycles int           `mapstructure:"summary_every_cycles"`
	Symbols            []string      `mapstructure:"symbols"`
	ExcludedSymbols    []string      `mapstructure:"excluded_symbols"`
}

// FetchConfig tunes the venue HTTP clients.
type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	MaxRetryElapsed time.Duration `mapstructure:"max_retry_elapsed"`
}

// VenueConfig describes one binance-compatible venue endpoint.
type VenueConfig struct {
	Name           string `mapstructure:"name"`
	BaseURL        string `mapstructure:"base_url"`
	RequestsPerSec int    `mapstructure:"requests_per_sec"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// HealthConfig controls the liveness endpoint.
type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARBWATCHER")
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

	if len(cfg.Venues) == 0 {
		cfg.Venues = defaultVenues()
	}
	if len(cfg.Monitor.Symbols) == 0 {
		cfg.Monitor.Symbols = defaultSymbols()
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
	v.SetDefault("app.name", "arbwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "60s")
	v.SetDefault("scheduler.align_to_start", false)
	v.SetDefault("scheduler.startup_delay", "0s")
	v.SetDefault("scheduler.immediate", true)

	v.SetDefault("monitor.threshold_pct", 10.0)
	v.SetDefault("monitor.min_volume_usd", 50000.0)
	v.SetDefault("monitor.max_alerts_per_cycle", 5)
	v.SetDefault("monitor.cooldown", "30m")
	v.SetDefault("monitor.summary_every_cycles", 60)
	v.SetDefault("monitor.excluded_symbols", []string{
		"BTC", "ETH", "USDT", "USDC", "BNB", "XRP", "ADA", "SOL",
		"DOGE", "MATIC", "DOT", "AVAX", "SHIB", "LTC", "UNI",
		"BUSD", "DAI", "TUSD", "USDD", "FRAX",
	})

	v.SetDefault("fetch.timeout", "10s")
	v.SetDefault("fetch.user_agent", "arbwatcher/1.0")
	v.SetDefault("fetch.max_concurrent", 10)
	v.SetDefault("fetch.max_retry_elapsed", "15s")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.addr", ":8000")
}

func defaultVenues() []VenueConfig {
	return []VenueConfig{
		{Name: "binance", BaseURL: "https://api.binance.com", RequestsPerSec: 10},
		{Name: "mexc", BaseURL: "https://api.mexc.com", RequestsPerSec: 5},
	}
}

func defaultSymbols() []string {
	return []string{
		"LINK/USDT", "ATOM/USDT", "NEAR/USDT",
		"FTM/USDT", "ONE/USDT", "ALGO/USDT", "VET/USDT", "ENJ/USDT",
		"SAND/USDT", "MANA/USDT", "AXS/USDT", "GALA/USDT", "CHZ/USDT",
		"FIL/USDT", "XTZ/USDT", "EGLD/USDT", "FLOW/USDT", "ICP/USDT",
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
	if c.Monitor.ThresholdPct < 0 {
		return fmt.Errorf("monitor.threshold_pct cannot be negative")
	}
	if c.Monitor.MinVolumeUSD < 0 {
		return fmt.Errorf("monitor.min_volume_usd cannot be negative")
	}
	if c.Monitor.MaxAlertsPerCycle <= 0 {
		return fmt.Errorf("monitor.max_alerts_per_cycle must be greater than zero")
	}
	if c.Monitor.Cooldown <= 0 {
		return fmt.Errorf("monitor.cooldown must be greater than zero")
	}
	for _, venue := range c.Venues {
		if venue.Name == "" || venue.BaseURL == "" {
			return fmt.Errorf("venue entries require name and base_url")
		}
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token 必须配置")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id 必须配置")
		}
	}
	return nil
}

// WatchSymbols returns the configured watchlist with excluded base assets
// removed.
func (c *Config) WatchSymbols() []string {
	if len(c.Monitor.ExcludedSymbols) == 0 {
		return c.Monitor.Symbols
	}
	excluded := make(map[string]bool, len(c.Monitor.ExcludedSymbols))
	for _, s := range c.Monitor.ExcludedSymbols {
		excluded[strings.ToUpper(s)] = true
	}

	kept := make([]string, 0, len(c.Monitor.Symbols))
	for _, symbol := range c.Monitor.Symbols {
		base := strings.ToUpper(symbol)
		if i := strings.Index(base, "/"); i >= 0 {
			base = base[:i]
		}
		if excluded[base] {
			continue
		}
		kept = append(kept, symbol)
	}
	return kept
}
