// Package logging configures log/slog for the server and the CLI.
//
// Request-scoped loggers pick up chi's request ID so every entry written
// while handling an upload can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// New builds a logger writing to w.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Setup installs a stdout logger as the slog default and returns it.
// Use "json" in production and "text" when reading logs by eye.
func Setup(level, format string) *slog.Logger {
	logger := New(os.Stdout, level, format)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// FromContext returns the default logger, tagged with the chi request ID
// when ctx carries one.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("parse started", "schema", schemaKey)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a request logger carrying extra fields.
//
//	runLogger := logging.WithFields(ctx, "schema", key, "file", name)
//	runLogger.Info("parse finished", "valid", summary.Valid)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
