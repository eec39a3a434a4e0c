// Package config provides configuration management for the scrollkitd
// harness, grounded on pkg/config/config.go's viper-backed Config/Load
// shape.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the scrollkitd harness.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Slice   SliceConfig   `mapstructure:"slice"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Persist PersistConfig `mapstructure:"persist"`
	Log     LogConfig     `mapstructure:"log"`
}

// SourceConfig controls the synthetic data source the harness drives.
type SourceConfig struct {
	// ItemCount is the total number of synthetic rows the source
	// reports.
	ItemCount int `mapstructure:"item_count"`
	// Categories splits ItemCount into this many equal-sized
	// subcategories, exercising SetCategoryBounds. 0 disables
	// categorization (one flat list).
	Categories int `mapstructure:"categories"`
	// FetchLatency is an artificial per-fetch delay simulating a slow
	// network/database backend, so a request superseded mid-flight by a
	// newer one is actually observable.
	FetchLatency time.Duration `mapstructure:"fetch_latency"`
}

// SliceConfig mirrors slice.Controller's tunables.
type SliceConfig struct {
	SliceMax    int           `mapstructure:"slice_max"`
	LoaderSize  float32       `mapstructure:"loader_size"`
	MinLoadTime time.Duration `mapstructure:"min_load_time"`
}

// EngineConfig controls the scroll engine driving the simulated
// viewport.
type EngineConfig struct {
	ScrollSize float32 `mapstructure:"scroll_size"`
	RowHeight  float32 `mapstructure:"row_height"`
}

// PersistConfig selects the persisted-state backend.
type PersistConfig struct {
	// Store is "mem" or "sqlite".
	Store string `mapstructure:"store"`
	// Path is the sqlite database file, used only when Store is
	// "sqlite".
	Path string `mapstructure:"path"`
}

// LogConfig controls the harness's own logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from configPath (if non-empty) or the
// standard search locations, falling back to defaults when no file is
// found.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("scrollkitd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/scrollkitd")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file: defaults stand.
		} else if os.IsNotExist(err) {
			// Explicit path doesn't exist: defaults stand.
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromReader loads configuration from in-memory content, useful for
// tests.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.item_count", 5000)
	v.SetDefault("source.categories", 0)
	v.SetDefault("source.fetch_latency", "0s")

	v.SetDefault("slice.slice_max", 24)
	v.SetDefault("slice.loader_size", 48.0)
	v.SetDefault("slice.min_load_time", "600ms")

	v.SetDefault("engine.scroll_size", 800.0)
	v.SetDefault("engine.row_height", 56.0)

	v.SetDefault("persist.store", "mem")
	v.SetDefault("persist.path", "./scrollkitd.db")

	v.SetDefault("log.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source.ItemCount < 0 {
		return fmt.Errorf("source.item_count must be non-negative")
	}
	if c.Slice.SliceMax < 1 {
		return fmt.Errorf("slice.slice_max must be at least 1")
	}
	if c.Persist.Store != "mem" && c.Persist.Store != "sqlite" {
		return fmt.Errorf("unsupported persist store: %s", c.Persist.Store)
	}
	return nil
}
