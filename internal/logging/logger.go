// Package logging provides structured logging configuration using log/slog.
//
// Each conversion run carries a run ID in its context. Loggers obtained via
// FromContext include it automatically, so every entry written while
// converting a table can be correlated with the run that produced it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type runIDKey struct{}

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Logs go to stderr so stdout stays free for dry-run output.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
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

// WithRun returns a context carrying a fresh run ID, and the ID itself.
// An existing run ID in ctx is kept.
func WithRun(ctx context.Context) (context.Context, string) {
	if id := RunID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, runIDKey{}, id), id
}

// RunID returns the run ID stored in ctx, or "" if there is none.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// FromContext returns a logger enriched with run context.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("table converted", "table", job.Table)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if id := RunID(ctx); id != "" {
		logger = logger.With("run_id", id)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	tableLogger := logging.WithFields(ctx,
//	    "table", job.Table,
//	    "source", job.Source,
//	)
//	tableLogger.Info("table started")
//	// ... later ...
//	tableLogger.Info("table completed", "rows", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
