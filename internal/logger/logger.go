// Package logger configures structured logging for the SDK's commands and
// the storefront emulator. Production output is JSON; development output is
// the text handler.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// Logger wraps slog.Logger with a few conveniences.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Writer    io.Writer
	Format    string // "json" or "text"; defaults to text
	Level     slog.Level
	AddSource bool
}

// New creates a logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.Format == formatJSON {
		handler = slog.NewJSONHandler(cfg.Writer, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Writer, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// ParseLevel converts a string to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError returns a logger with the error attached as an attribute.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With(slog.Any("error", err))}
}

// WithField returns a logger with a single extra attribute.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Logger: l.With(slog.Any(key, value))}
}

// Fatal logs at error level and exits. For command startup failures only.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
