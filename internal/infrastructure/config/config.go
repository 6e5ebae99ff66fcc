// Package config loads engine configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all tunable settings for a compositor session.
type Config struct {
	Engine  EngineConfig  `yaml:"engine" validate:"required"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig tunes the evaluator and its result cache.
type EngineConfig struct {
	CacheTTL        time.Duration `yaml:"cache_ttl" validate:"min=0"`
	CacheMaxEntries int           `yaml:"cache_max_entries" validate:"min=0"`
	HotWindow       time.Duration `yaml:"hot_window" validate:"min=0"`
}

// JournalConfig selects the pass history backend.
type JournalConfig struct {
	Backend    string `yaml:"backend" validate:"omitempty,oneof=memory sqlite postgres"`
	DSN        string `yaml:"dsn"`
	MaxRecords int    `yaml:"max_records" validate:"min=0"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			CacheTTL:        30 * time.Second,
			CacheMaxEntries: 128,
			HotWindow:       100 * time.Millisecond,
		},
		Journal: JournalConfig{
			Backend:    "memory",
			MaxRecords: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file, applies environment overrides,
// and validates the result. An empty path yields defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment. A .env file is
// loaded first when present.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	c.Engine.CacheTTL = getEnvAsDuration("FRAMEGRAPH_CACHE_TTL", c.Engine.CacheTTL)
	c.Engine.CacheMaxEntries = getEnvAsInt("FRAMEGRAPH_CACHE_MAX_ENTRIES", c.Engine.CacheMaxEntries)
	c.Engine.HotWindow = getEnvAsDuration("FRAMEGRAPH_HOT_WINDOW", c.Engine.HotWindow)

	c.Journal.Backend = getEnvWithDefault("FRAMEGRAPH_JOURNAL_BACKEND", c.Journal.Backend)
	c.Journal.DSN = getEnvWithDefault("FRAMEGRAPH_JOURNAL_DSN", c.Journal.DSN)
	c.Journal.MaxRecords = getEnvAsInt("FRAMEGRAPH_JOURNAL_MAX_RECORDS", c.Journal.MaxRecords)

	c.Logging.Level = getEnvWithDefault("FRAMEGRAPH_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvWithDefault("FRAMEGRAPH_LOG_FORMAT", c.Logging.Format)
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if (c.Journal.Backend == "sqlite" || c.Journal.Backend == "postgres") && c.Journal.DSN == "" {
		return fmt.Errorf("invalid configuration: journal backend %q requires a dsn", c.Journal.Backend)
	}
	return nil
}

func getEnvWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
