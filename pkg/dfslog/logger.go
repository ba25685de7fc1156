// Package dfslog provides slog-based logging for the file store
// daemons: human-readable colorized output on a terminal, with optional
// fan-out to a log file.
package dfslog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Config holds configuration for creating a new Logger.
type Config struct {
	// Source names the emitting process, e.g. "coordinator-5000".
	Source string
	// MinLevel is the minimum level written anywhere.
	MinLevel slog.Level
	// FilePath, if set, additionally appends text-format records to a file.
	FilePath string
}

// Logger wraps slog.Logger with optional file fan-out.
type Logger struct {
	*slog.Logger
	file *os.File
}

// NewLogger creates a Logger writing to stdout and, if configured, a
// log file.
func NewLogger(cfg Config) (*Logger, error) {
	handlers := []slog.Handler{
		NewHandler(os.Stdout, cfg.Source, cfg.MinLevel),
	}

	var file *os.File
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.MinLevel}))
	}

	return &Logger{
		Logger: slog.New(&multiHandler{handlers: handlers}),
		file:   file,
	}, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

// multiHandler sends log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			// Ignore errors - we want to send to all handlers
			h.Handle(ctx, r)
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
