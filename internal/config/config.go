package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "REWIND_"

// Config is the complete rewind configuration.
type Config struct {
	History HistoryConfig `toml:"history" yaml:"history" envPrefix:"HISTORY_"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" envPrefix:"LOG_"`
	Script  ScriptConfig  `toml:"script" yaml:"script" envPrefix:"SCRIPT_"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics" envPrefix:"METRICS_"`
}

// HistoryConfig configures the history engine.
type HistoryConfig struct {
	// MaxFrames bounds the history depth; 0 means unlimited.
	MaxFrames int `toml:"max_frames" yaml:"max_frames" env:"MAX_FRAMES"`

	// Record starts recording before the script runs.
	Record bool `toml:"record" yaml:"record" env:"RECORD"`

	// AutoSave saves a frame after every commit that changed a tracked
	// object. Only meaningful with Record.
	AutoSave bool `toml:"auto_save" yaml:"auto_save" env:"AUTO_SAVE"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level" env:"LEVEL"`

	// Format is text or json.
	Format string `toml:"format" yaml:"format" env:"FORMAT"`
}

// ScriptConfig configures the Lua runtime.
type ScriptConfig struct {
	// TimeoutMS bounds one script run; 0 disables the limit.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms" env:"TIMEOUT_MS"`

	// WatchDebounceMS coalesces file events in watch mode.
	WatchDebounceMS int `toml:"watch_debounce_ms" yaml:"watch_debounce_ms" env:"WATCH_DEBOUNCE_MS"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `toml:"addr" yaml:"addr" env:"ADDR"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{
			Record: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Script: ScriptConfig{
			TimeoutMS:       5000,
			WatchDebounceMS: 100,
		},
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile decodes path into cfg; fields absent from the file keep their
// current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, not an error
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return newParseError(path, err)
	}
	return nil
}

// Validate checks value ranges and enumerations. The returned error joins
// one *ValidationError per failing setting.
func (c Config) Validate() error {
	var errs []error
	if c.History.MaxFrames < 0 {
		errs = append(errs, &ValidationError{Path: "history.max_frames", Message: "must be >= 0", Value: c.History.MaxFrames})
	}
	if c.Script.TimeoutMS < 0 {
		errs = append(errs, &ValidationError{Path: "script.timeout_ms", Message: "must be >= 0", Value: c.Script.TimeoutMS})
	}
	if c.Script.WatchDebounceMS < 0 {
		errs = append(errs, &ValidationError{Path: "script.watch_debounce_ms", Message: "must be >= 0", Value: c.Script.WatchDebounceMS})
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, &ValidationError{Path: "logging.format", Message: "must be text or json", Value: c.Logging.Format})
	}
	return errors.Join(errs...)
}
