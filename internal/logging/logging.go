package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup creates a configured *slog.Logger writing to stderr, sets it as the
// default, and returns it. Unrecognized levels fall back to info.
func Setup(level string) *slog.Logger {
	return New(os.Stderr, level)
}

// New builds a text logger for w at the given level without touching the
// default logger.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler)
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		slog.SetDefault(logger)
	}
	return logger
}

// ParseLevel maps "debug", "info", "warn" and "error" (case-insensitive) to
// slog levels.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
