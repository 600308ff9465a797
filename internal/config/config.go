// Package config provides Viper-based configuration loading for the timer
// bot.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig holds the timer engine and update scheduler settings.
type EngineConfig struct {
	// TickInterval is the period between scheduler sweeps over all timers.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// PauseTimeout is how long a timer may stay paused before it is
	// force-stopped.
	PauseTimeout time.Duration `mapstructure:"pause_timeout"`
	// DisplayInterval is the minimum spacing between display refreshes for a
	// single channel.
	DisplayInterval time.Duration `mapstructure:"display_interval"`
	// DisplayBurst is the rate limiter burst for display refreshes.
	DisplayBurst int `mapstructure:"display_burst"`
	// FineWindow is the remaining duration under which the display refreshes
	// on every change instead of at the coarse cadence.
	FineWindow time.Duration `mapstructure:"fine_window"`
	// CoarseInterval is the display refresh spacing while above FineWindow.
	CoarseInterval time.Duration `mapstructure:"coarse_interval"`
	// DefaultThresholds are the base notification marks armed below a
	// timer's starting duration; one mark per whole hour is added on top at
	// start time.
	DefaultThresholds []time.Duration `mapstructure:"default_thresholds"`
}

// PresetsConfig holds timer preset content settings.
type PresetsConfig struct {
	// Enabled toggles preset loading at startup.
	Enabled bool `mapstructure:"enabled"`
	// Dir is the directory of preset YAML files.
	Dir string `mapstructure:"dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Presets PresetsConfig `mapstructure:"presets"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePresets(c.Presets); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	if l.Format != "json" && l.Format != "console" {
		errs = append(errs, fmt.Sprintf("logging.format must be json or console, got %q", l.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("engine.tick_interval must be positive, got %s", e.TickInterval))
	}
	if e.PauseTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("engine.pause_timeout must be positive, got %s", e.PauseTimeout))
	}
	if e.DisplayInterval <= 0 {
		errs = append(errs, fmt.Sprintf("engine.display_interval must be positive, got %s", e.DisplayInterval))
	}
	if e.DisplayBurst < 1 {
		errs = append(errs, fmt.Sprintf("engine.display_burst must be >= 1, got %d", e.DisplayBurst))
	}
	if e.FineWindow < 0 {
		errs = append(errs, fmt.Sprintf("engine.fine_window must be >= 0, got %s", e.FineWindow))
	}
	if e.CoarseInterval < e.DisplayInterval {
		errs = append(errs, "engine.coarse_interval must not be shorter than engine.display_interval")
	}
	for _, limit := range e.DefaultThresholds {
		if limit <= 0 {
			errs = append(errs, fmt.Sprintf("engine.default_thresholds entries must be positive, got %s", limit))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePresets(p PresetsConfig) error {
	if p.Enabled && p.Dir == "" {
		return fmt.Errorf("presets.dir must not be empty when presets.enabled is true")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with TIMERBOT_ prefix
	v.SetEnvPrefix("TIMERBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.tick_interval", "1s")
	v.SetDefault("engine.pause_timeout", "30m")
	v.SetDefault("engine.display_interval", "1s")
	v.SetDefault("engine.display_burst", 1)
	v.SetDefault("engine.fine_window", "5m30s")
	v.SetDefault("engine.coarse_interval", "30s")
	v.SetDefault("engine.default_thresholds", []string{"1m", "5m", "15m", "30m"})

	v.SetDefault("presets.enabled", false)
	v.SetDefault("presets.dir", "content/presets")
}
