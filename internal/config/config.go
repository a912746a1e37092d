// Package config provides configuration management using Viper.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobrunner/gauss/internal/domain"
)

// Datum shift methods accepted in engine.datum_shift.
const (
	DatumShiftBursaWolf  = "bursa_wolf"
	DatumShiftMolodensky = "molodensky"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds the transformation engine policy.
type EngineConfig struct {
	Tolerance               float64 `mapstructure:"tolerance"`      // Convergence tolerance of iterative inverses, radians
	MaxIterations           int     `mapstructure:"max_iterations"` // Iteration cap of iterative inverses
	DatumShift              string  `mapstructure:"datum_shift"`    // bursa_wolf, molodensky
	CacheEnabled            bool    `mapstructure:"cache_enabled"`
	AllowDimensionReduction bool    `mapstructure:"allow_dimension_reduction"`
}

// CatalogConfig holds CRS catalog configuration.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`  // Optional YAML definition file
	Watch bool   `mapstructure:"watch"` // Reload the definition file on change
}

// BatchConfig holds bulk reprojection configuration.
type BatchConfig struct {
	Workers  int           `mapstructure:"workers"`
	Debounce time.Duration `mapstructure:"debounce"`
	Inbox    string        `mapstructure:"inbox"`
	Outbox   string        `mapstructure:"outbox"`
}

// MetricsConfig holds Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"` // Written on exit when set
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Defaults sets the default configuration values.
func Defaults() {
	// Engine defaults
	viper.SetDefault("engine.tolerance", 1e-11)
	viper.SetDefault("engine.max_iterations", 15)
	viper.SetDefault("engine.datum_shift", DatumShiftBursaWolf)
	viper.SetDefault("engine.cache_enabled", true)
	viper.SetDefault("engine.allow_dimension_reduction", false)

	// Catalog defaults
	viper.SetDefault("catalog.path", "")
	viper.SetDefault("catalog.watch", false)

	// Batch defaults
	viper.SetDefault("batch.workers", 4)
	viper.SetDefault("batch.debounce", 500*time.Millisecond)
	viper.SetDefault("batch.inbox", "./inbox")
	viper.SetDefault("batch.outbox", "./outbox")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.textfile", "")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// Load loads configuration from environment and config file.
func Load(configPath string) (*Config, error) {
	Defaults()

	// Environment variable binding
	viper.SetEnvPrefix("GAUSS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Config file
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/gauss")
		viper.AddConfigPath("$HOME/.gauss")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.Tolerance <= 0 || c.Engine.Tolerance >= 1e-3 {
		return &domain.ConfigError{Field: "engine.tolerance", Message: fmt.Sprintf("must be in (0, 1e-3), got %g", c.Engine.Tolerance)}
	}
	if c.Engine.MaxIterations < 1 || c.Engine.MaxIterations > 100 {
		return &domain.ConfigError{Field: "engine.max_iterations", Message: fmt.Sprintf("must be in [1, 100], got %d", c.Engine.MaxIterations)}
	}
	switch c.Engine.DatumShift {
	case DatumShiftBursaWolf, DatumShiftMolodensky:
	default:
		return &domain.ConfigError{Field: "engine.datum_shift", Message: fmt.Sprintf("unknown method %q", c.Engine.DatumShift)}
	}

	if c.Catalog.Watch && c.Catalog.Path == "" {
		return &domain.ConfigError{Field: "catalog.watch", Message: "watching requires catalog.path"}
	}

	if c.Batch.Workers < 1 {
		return &domain.ConfigError{Field: "batch.workers", Message: fmt.Sprintf("must be positive, got %d", c.Batch.Workers)}
	}
	if c.Batch.Debounce < 0 {
		return &domain.ConfigError{Field: "batch.debounce", Message: "must not be negative"}
	}
	if c.Batch.Inbox != "" && c.Batch.Outbox != "" && filepath.Clean(c.Batch.Inbox) == filepath.Clean(c.Batch.Outbox) {
		return &domain.ConfigError{Field: "batch.outbox", Message: "must differ from batch.inbox"}
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return &domain.ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}

	return nil
}
