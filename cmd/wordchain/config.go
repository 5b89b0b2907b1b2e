package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// TrainingConfig holds the defaults used when building a model from a word list.
type TrainingConfig struct {
	Order          int  `json:"order"`
	SkipEmptyLines bool `json:"skip_empty_lines"`
	TrimSpace      bool `json:"trim_space"`
}

// GenerationConfig holds the defaults used when generating words.
type GenerationConfig struct {
	LengthMin int `json:"length_min"`
	LengthMax int `json:"length_max"`
	Count     int `json:"count"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel     string            `json:"log_level"`
	DatabasePath string            `json:"database_path"`
	Training     *TrainingConfig   `json:"training_config"`
	Generation   *GenerationConfig `json:"generation_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		DatabasePath: "./wordchain.db",
		Training: &TrainingConfig{
			Order:          4,
			SkipEmptyLines: false,
			TrimSpace:      false,
		},
		Generation: &GenerationConfig{
			LengthMin: 3,
			LengthMax: 12,
			Count:     1,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Warn instead of failing, the defaults are still usable.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Sections missing from an older file fall back to defaults.
	defaults := DefaultConfig()
	if config.Training == nil {
		config.Training = defaults.Training
	}
	if config.Generation == nil {
		config.Generation = defaults.Generation
	}

	return config, nil
}

// Validate reports configuration values that can never produce a model or a word.
func (c *Config) Validate() error {
	var errs []error
	if c.Training.Order < 1 {
		errs = append(errs, fmt.Errorf("training_config.order must be at least 1, got %d", c.Training.Order))
	}
	if c.Generation.LengthMin < 1 {
		errs = append(errs, fmt.Errorf("generation_config.length_min must be at least 1, got %d", c.Generation.LengthMin))
	}
	if c.Generation.LengthMax <= c.Generation.LengthMin {
		errs = append(errs, fmt.Errorf("generation_config.length_max (%d) must be greater than length_min (%d)", c.Generation.LengthMax, c.Generation.LengthMin))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path must not be empty"))
	}
	return errors.Join(errs...)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
