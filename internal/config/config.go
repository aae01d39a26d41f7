package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/tdmkt/tdseq/internal/domain/demark"
	"github.com/tdmkt/tdseq/internal/exits"
)

// Config is the top-level tdseq configuration.
type Config struct {
	Engine demark.Config `yaml:"engine"`
	Exits  exits.Config  `yaml:"exits"`
	Data   DataConfig    `yaml:"data"`
	Server ServerConfig  `yaml:"server"`
}

// DataConfig configures the caller-side bar sources and snapshot store.
type DataConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	CandleTable string `yaml:"candle_table"`

	RedisAddr          string `yaml:"redis_addr"`
	SnapshotTTLSeconds int    `yaml:"snapshot_ttl_seconds"`
}

// ServerConfig configures the snapshot HTTP API.
type ServerConfig struct {
	Listen    string  `yaml:"listen"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second
	RateBurst int     `yaml:"rate_burst"`
}

// Default returns a configuration with the standard indicator and tranche
// parameters and local service endpoints.
func Default() *Config {
	return &Config{
		Engine: demark.DefaultConfig(),
		Exits:  *exits.DefaultConfig(),
		Data: DataConfig{
			CandleTable:        "candles",
			RedisAddr:          "localhost:6379",
			SnapshotTTLSeconds: 300,
		},
		Server: ServerConfig{
			Listen:    ":8087",
			RateLimit: 10,
			RateBurst: 20,
		},
	}
}

// Load reads a configuration file, applying defaults for absent sections.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to disk.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks all sections for usable values.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Exits.MinBarsAfterSetup9 < 0 {
		return fmt.Errorf("exits: min_bars_after_setup9 must be non-negative")
	}
	if c.Exits.TimeStopFloorDays < 0 {
		return fmt.Errorf("exits: time_stop_floor_days must be non-negative")
	}
	if c.Data.SnapshotTTLSeconds < 0 {
		return fmt.Errorf("data: snapshot_ttl_seconds must be non-negative")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("server: rate_limit must be positive")
	}
	return nil
}
