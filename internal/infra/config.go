package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds the application-level configuration: endpoint overrides,
// timeouts and the operational surface. User-facing display settings live
// in config.json, not here.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	HTTP struct {
		TimeoutSec int `yaml:"timeout_sec"`
	} `yaml:"http"`

	Sources struct {
		// AggregatorURL overrides the CoinGecko base URL (mainly for testing)
		AggregatorURL string `yaml:"aggregator_url"`
		// RateProviders overrides the exchange-rate provider chain, in priority order
		RateProviders []string `yaml:"rate_providers"`
		// ExchangeBases overrides individual exchange base URLs, keyed by
		// source name (e.g. "Binance"); the chain order is fixed
		ExchangeBases map[string]string `yaml:"exchange_bases"`
	} `yaml:"sources"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Paths struct {
		Settings string `yaml:"settings"` // user settings file (config.json)
		Database string `yaml:"database"` // empty = per-OS default
	} `yaml:"paths"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// DefaultConfig returns a config usable without any file on disk.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "crypto-tracker"
	cfg.HTTP.TimeoutSec = 10
	cfg.Server.ListenAddr = "127.0.0.1:8090"
	cfg.Paths.Settings = "config.json"
	cfg.Logging.Level = "info"
	cfg.Logging.File = filepath.Join("logs", "tracker.log")
	cfg.Logging.MaxSizeMB = 10
	cfg.Logging.MaxBackups = 3
	cfg.Logging.MaxAgeDays = 28
	cfg.Logging.Compress = true
	return &cfg
}

// LoadConfig reads and parses the application config. A missing file is not
// an error: the widget must run standalone with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			overrideWithEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.HTTP.TimeoutSec <= 0 {
		return fmt.Errorf("http timeout must be positive, got %d", c.HTTP.TimeoutSec)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Paths.Settings == "" {
		return fmt.Errorf("settings path is required")
	}
	return nil
}

// overrideWithEnv applies environment variable overrides where present.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("TRACKER_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
	if path := os.Getenv("TRACKER_SETTINGS_PATH"); path != "" {
		cfg.Paths.Settings = path
	}
	if path := os.Getenv("TRACKER_DB_PATH"); path != "" {
		cfg.Paths.Database = path
	}
	if level := os.Getenv("TRACKER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
