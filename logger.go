package symcost

import (
	"io"
	"log/slog"
)

// NewLogger builds a slog logger writing to w as configured.
func NewLogger(config LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level

	switch config.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if config.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
