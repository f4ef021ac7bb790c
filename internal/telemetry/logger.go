package telemetry

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger. Output is JSON
// on stdout so it slots into any log collector unchanged.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("STORYBOARD_DEBUG") != "" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
