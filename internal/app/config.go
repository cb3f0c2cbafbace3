package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/specialistvlad/coregrid/internal/plan"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths      []string          // topology files or directories
	Variables  map[string]string // values for declared topology variables
	Format     string            // plan output format
	OutputPath string            // plan destination; empty writes to the app output

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one topology path is required")
	}
	for _, p := range cfg.Paths {
		if strings.TrimSpace(p) == "" {
			return nil, errors.New("topology paths cannot be empty")
		}
	}

	if cfg.Format == "" {
		cfg.Format = plan.FormatYAML
	}
	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Format != plan.FormatYAML && cfg.Format != plan.FormatJSON {
		return nil, fmt.Errorf("invalid format %q: must be %q or %q", cfg.Format, plan.FormatYAML, plan.FormatJSON)
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = logFormatText
	case logFormatText, logFormatJSON:
	default:
		return nil, fmt.Errorf("invalid log format %q: must be %q or %q", cfg.LogFormat, logFormatText, logFormatJSON)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return &cfg, nil
}

// level returns the configured log level. Configs that skipped NewConfig
// fall back to info.
func (c *Config) level() slog.Level {
	lvl, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// parseLogLevel accepts debug, info, warn and error, optionally with an
// offset such as warn+2.
func parseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(s))
	return lvl, err
}
