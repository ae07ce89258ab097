// Package config handles Vegvisir configuration via YAML files and
// environment variables.
//
// Precedence (highest to lowest):
//  1. Command-line flags
//  2. Environment variables (VEGVISIR_*)
//  3. Config file (vegvisir.yaml)
//  4. Built-in defaults
//
// Environment variables:
//   - VEGVISIR_LOG_LEVEL="debug" | "info" | "warn" | "error"
//   - VEGVISIR_LOG_FORMAT="console" | "json"
//   - VEGVISIR_GRAPH_DIR="./graphs"
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds runner configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	// GraphDir is resolved against relative graph paths in plan files.
	GraphDir string `yaml:"graph_dir"`
}

// LoggingConfig controls the zap logger the runner installs.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		GraphDir: ".",
	}
}

// LoadFromFile reads a YAML config file, layers environment overrides on
// top, and validates the result. An empty path yields defaults plus
// environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile returns the first config file present among the standard
// locations, or "" when none exists.
func FindConfigFile() string {
	candidates := []string{"vegvisir.yaml", "vegvisir.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".vegvisir", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func (c *Config) applyEnv() {
	if v := os.Getenv("VEGVISIR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VEGVISIR_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("VEGVISIR_GRAPH_DIR"); v != "" {
		c.GraphDir = v
	}
}

func (c *Config) validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: invalid log format %q", c.Logging.Format)
	}
	return nil
}
