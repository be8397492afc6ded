// Package config holds the tool configuration loaded from an optional YAML
// file. Every field has a working default so the tool runs with no config
// file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk YAML shape.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// JPEGQuality is the encoder quality for .jpg outputs, 1..100.
	JPEGQuality int `yaml:"jpeg_quality"`

	// DefaultTint is the RGB color applied by the alphascale converter when
	// no tint flag is given.
	DefaultTint [3]uint8 `yaml:"default_tint"`

	// Overwrite allows batch runs to replace existing output files without
	// the --overwrite flag.
	Overwrite bool `yaml:"overwrite"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		JPEGQuality: 100,
		DefaultTint: [3]uint8{0, 0, 255},
	}
}

// Load reads the YAML file at path on top of the defaults, so a partial
// file only overrides what it names.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be 1..100, got %d", c.JPEGQuality)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func Save(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
