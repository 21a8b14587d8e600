package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/synthgen/internal/config"
)

type contextKey struct{}

// Setup initializes and configures the application's logging system based on
// the provided configuration. It creates a structured JSON logger writing to
// stderr with the appropriate log level and sets it as the default logger.
//
// stdout stays free for command output such as generated identifiers.
func Setup(cfg config.LogConfig) (*slog.Logger, error) {
	return SetupWithWriter(cfg, os.Stderr)
}

// SetupWithWriter behaves like Setup but writes log records to out.
func SetupWithWriter(cfg config.LogConfig, out io.Writer) (*slog.Logger, error) {
	level := ParseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	logger := slog.New(slog.NewJSONHandler(out, opts))

	// Set this logger as the default for the application
	// This allows using the slog package functions directly (slog.Info, slog.Error, etc.)
	slog.SetDefault(logger)

	if !isKnownLevel(cfg.Level) {
		logger.Warn("invalid log level configured, using default level",
			"configured_level", cfg.Level,
			"default_level", "info")
	}

	return logger, nil
}

// ParseLevel maps a case-insensitive level name to a slog.Level.
// Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

func isKnownLevel(name string) bool {
	switch strings.ToLower(name) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// WithLogger returns a copy of ctx carrying l.
// It panics if l is nil.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		panic("logger: WithLogger called with nil logger")
	}
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger carried by ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault returns the logger carried by ctx, or fallback.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx == nil {
		return fallback
	}
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return fallback
}
