// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging wraps log/slog with the handlers the CLI needs: a
// colored console handler on a terminal, plain text or JSON otherwise,
// and an optional fan-out to a remote syslog collector.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Config controls logger construction.
type Config struct {
	Level  slog.Level
	Output io.Writer
	JSON   bool
	Syslog SyslogConfig
}

// DefaultConfig logs at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Output: os.Stderr,
		Syslog: DefaultSyslogConfig(),
	}
}

// ParseLevel maps a settings string to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Logger is a component-scoped structured logger.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from cfg. A syslog target that cannot be reached is
// reported on the console logger and otherwise ignored.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	handler := consoleHandler(cfg)
	var syslogErr error
	if cfg.Syslog.Enabled {
		w, err := NewSyslogWriter(cfg.Syslog)
		if err != nil {
			syslogErr = err
		} else {
			handler = &fanout{handlers: []slog.Handler{
				handler,
				slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level}),
			}}
		}
	}

	l := &Logger{Logger: slog.New(handler)}
	if syslogErr != nil {
		l.Warn("syslog forwarding disabled", "error", syslogErr)
	}
	return l
}

func consoleHandler(cfg Config) slog.Handler {
	if cfg.JSON {
		return slog.NewJSONHandler(cfg.Output, &slog.HandlerOptions{Level: cfg.Level})
	}
	if f, ok := cfg.Output.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return charmlog.NewWithOptions(f, charmlog.Options{
			Level:           charmlog.Level(cfg.Level),
			ReportTimestamp: true,
		})
	}
	return slog.NewTextHandler(cfg.Output, &slog.HandlerOptions{Level: cfg.Level})
}

// WithComponent returns a child logger tagged with component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// With returns a child logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(DefaultConfig()))
}

// SetDefault replaces the process-wide logger used by the package helpers.
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(l)
	slog.SetDefault(l.Logger)
}

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// WithComponent returns a child of the default logger.
func WithComponent(name string) *Logger {
	return Default().WithComponent(name)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }

// fanout sends each record to every handler that accepts its level.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
