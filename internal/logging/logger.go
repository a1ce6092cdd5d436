package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog for structured logging.
type Logger struct {
	*slog.Logger
}

// New creates a Logger that outputs text or JSON depending on jsonMode.
// The level is taken from REAP3R_LOG_LEVEL (debug/info/warn/error), defaulting to info.
func New(jsonMode bool) *Logger {
	opts := &slog.HandlerOptions{Level: levelFromEnv()}
	var handler slog.Handler
	if jsonMode {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return &Logger{slog.New(handler)}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("REAP3R_LOG_LEVEL")) {
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
