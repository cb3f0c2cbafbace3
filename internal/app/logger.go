package app

import (
	"io"
	"log/slog"
)

// newLogger builds the logger described by cfg. It does not touch the
// global logger, so every App gets an isolated instance.
func newLogger(cfg *Config, logW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.level()}
	if cfg.LogFormat == logFormatJSON {
		return slog.New(slog.NewJSONHandler(logW, opts))
	}
	return slog.New(slog.NewTextHandler(logW, opts))
}
