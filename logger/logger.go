package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger that takes its fields as maps, so call sites
// read logger.Info("msg", logger.Fields(k, v, ...)).
type Logger struct {
	zl zerolog.Logger
}

// New builds a logger from cfg. Every record carries the service name.
func New(cfg *Config, service string) *Logger {
	out := outputWriter(cfg.Output)
	var zl zerolog.Logger
	if cfg.console() {
		zl = zerolog.New(consoleWriter(out, cfg.NoColor))
	} else {
		zl = zerolog.New(out).With().Str("service", service).Logger()
	}
	zc := zl.Level(parseLevel(cfg.Level)).With()
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger()}
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(w io.Writer, level, service string) *Logger {
	return &Logger{zl: zerolog.New(w).Level(parseLevel(level)).With().Str("service", service).Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger { return &Logger{zl: zerolog.Nop()} }

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func outputWriter(output string) *os.File {
	if strings.EqualFold(output, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}

func (l *Logger) with(fn func(zerolog.Context) zerolog.Context) *Logger {
	return &Logger{zl: fn(l.zl.With()).Logger()}
}

// WithComponent tags every record with the component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Str(FieldComponent, name) })
}

// WithFields returns a logger that adds fields to every record.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) WithError(err error) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context { return c.Err(err) })
}

type contextKey string

// ContextWith stores a log field on ctx for WithContext to pick up.
func ContextWith(ctx context.Context, field string, value any) context.Context {
	return context.WithValue(ctx, contextKey(field), value)
}

var contextFields = []string{FieldTraceID, FieldSpanID, FieldRequestID, FieldProjectID}

// WithContext adds the trace, span, request and project ids stored on ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.with(func(c zerolog.Context) zerolog.Context {
		for _, f := range contextFields {
			if v := ctx.Value(contextKey(f)); v != nil {
				c = c.Str(f, fmt.Sprint(v))
			}
		}
		return c
	})
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

func emit(ev *zerolog.Event, msg string, fields []map[string]any) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		ev.Fields(f)
	}
	ev.Msg(msg)
}

var global atomic.Pointer[Logger]

// Init replaces the global logger with one built from cfg.
func Init(cfg Config, service string) {
	cfg.ApplyDefaults()
	global.Store(New(&cfg, service))
}

func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger returns the global logger, building a default console
// logger on first use.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	cfg := Config{}
	cfg.ApplyDefaults()
	global.CompareAndSwap(nil, New(&cfg, "scribe"))
	return global.Load()
}

// OrGlobal returns l, or the global logger when l is nil.
func OrGlobal(l *Logger) *Logger {
	if l == nil {
		return GetGlobalLogger()
	}
	return l
}

func Debug(msg string, fields ...map[string]any) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]any)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]any)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]any) { GetGlobalLogger().Error(msg, fields...) }

// WithComponent tags the global logger.
func WithComponent(name string) *Logger { return GetGlobalLogger().WithComponent(name) }
