// Package config provides configuration loading and validation for oracle-node.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file, expanding environment variables.
func Load(path string) (*Config, error) {
	// Validate and sanitize path
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	// Read config file
	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in YAML
	expanded := os.ExpandEnv(string(data))

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply struct-tag defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	// Duration fields carry their defaults here, the defaults library
	// does not know about the YAML Duration wrapper
	applyDurationDefaults(&cfg)

	return &cfg, nil
}

// applyDurationDefaults sets default values for Duration fields.
func applyDurationDefaults(cfg *Config) {
	if cfg.UpdateInterval.ToDuration() == 0 {
		cfg.UpdateInterval = Duration(30 * time.Second)
	}
	if cfg.FetchTimeout.ToDuration() == 0 {
		cfg.FetchTimeout = Duration(10 * time.Second)
	}
	if cfg.Submit.Timeout.ToDuration() == 0 {
		cfg.Submit.Timeout = Duration(10 * time.Second)
	}
}
