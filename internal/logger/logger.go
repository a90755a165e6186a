// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLevel is the environment variable overriding the configured level.
const EnvLevel = "ECHOVERSE_LOG_LEVEL"

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text", "json" or "pretty"

	// File, when set, receives a JSON copy of every record with size-based rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogger creates a configured slog.Logger writing to stderr.
// The returned closer flushes and closes the rotating file sink, if any.
func NewLogger(cfg Config) (*slog.Logger, io.Closer) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Config, w io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "pretty":
		pretty := charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    cfg.Level <= slog.LevelDebug,
			Level:           charmlog.Level(cfg.Level),
		})
		handler = pretty
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		handler = teeHandler{handler, slog.NewJSONHandler(rotating, opts)}
		closer = rotating
	}

	return slog.New(handler), closer
}

// DefaultConfig returns the default logger configuration.
// Parses the ECHOVERSE_LOG_LEVEL environment variable to set the log level.
// Valid values: DEBUG, INFO, WARN, WARNING, ERROR
// Default: INFO
func DefaultConfig() Config {
	level := slog.LevelInfo
	if envLevel := os.Getenv(EnvLevel); envLevel != "" {
		if parsed, err := ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}

	return Config{
		Level:      level,
		Format:     "text",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// ParseLevel parses a level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.New("unknown log level " + s)
}

// teeHandler fans records out to every wrapped handler.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
