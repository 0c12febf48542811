// Package logger centralizes slog setup so every stage logs through one
// handler configured from the environment.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Setup builds the default logger. LOG_LEVEL picks the level (debug, warn,
// error; info otherwise) and LOG_FORMAT=json switches to the JSON handler.
// Output always goes to stderr so the output file path can be piped.
func Setup() *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// L returns the default logger, initializing it on first use.
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}
