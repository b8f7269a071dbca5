// Package config loads sapp settings from a YAML file, a .env file and
// SAPP_* environment variables, in increasing order of precedence.
// Command-line flags override all three.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvDatabase = "SAPP_DB"
	EnvFormat   = "SAPP_FORMAT"
	EnvLogLevel = "SAPP_LOG_LEVEL"
)

// Config holds the settings shared by every sapp command.
type Config struct {
	// Database is the path to the trace database.
	Database string `yaml:"database"`
	// Format is the output format, "text" or "json".
	Format string `yaml:"format"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Targets are leaf names used by trace when none are given on the
	// command line.
	Targets []string `yaml:"targets"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Database: "sapp.db",
		Format:   "text",
		LogLevel: "info",
	}
}

// Load builds a Config. An empty path skips the YAML file; a non-empty path
// must exist. A .env file in the working directory is loaded if present.
func Load(path string) (Config, error) {
	if err := loadDotenv(".env"); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotenv applies path to the environment. A missing file is not an
// error; a malformed one is.
func loadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: must be one of [text json]", c.Format)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level, INFO if unset or invalid.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}
