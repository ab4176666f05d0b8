package configuration

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a structured logger from the observability configuration.
// LogFormat "text" selects the text handler; everything else gets JSON.
// Unknown levels fall back to info.
func NewLogger(cfg ObservabilityConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}
