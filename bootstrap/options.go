package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/interviewscribe/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	summary         io.Writer
	signals         []os.Signal
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{summary: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the application logger instead of initializing one from
// the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds the shutdown phase.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}

// WithSummaryWriter sets where the startup summary is printed. A nil writer
// disables it.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *appOptions) { o.summary = w }
}

// WithSignals replaces the signals that stop Run and cancel RunTask.
func WithSignals(sigs ...os.Signal) Option {
	return func(o *appOptions) { o.signals = sigs }
}
