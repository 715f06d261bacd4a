// Package logging provides structured logging for hale using stdlib slog.
//
// Diagnostics always go to stderr by default: stdout belongs to the
// supervised program.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Component is attached to every record so hale's lines can be told
// apart from the child's own output on a shared stream.
const Component = "hale"

// LogConfig controls logger creation.
type LogConfig struct {
	Level  string    // "debug", "info", "warn", "error"
	Format string    // "text" (default), "json"
	Output io.Writer // defaults to os.Stderr
}

// New creates a configured *slog.Logger.
func New(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler).With("component", Component)
}

// LevelFor maps the verbose switch to a level name.
func LevelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}

// WithFields returns a child logger with additional context fields.
func WithFields(logger *slog.Logger, fields ...any) *slog.Logger {
	return logger.With(fields...)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
