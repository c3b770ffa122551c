package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/interviewscribe/component"
	"github.com/kbukum/interviewscribe/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// App carries the typed config, component registry and logger of one
// process. Any struct embedding config.ServiceConfig satisfies Config.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	gracefulTimeout time.Duration
	summaryOut      io.Writer
	signals         []os.Signal
	hooks           [phaseCount][]Hook
}

// NewApp applies defaults to cfg, validates it and sets up the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	svc := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	log := o.logger
	if log == nil {
		logger.Init(svc.Logging, svc.Name)
		log = logger.GetGlobalLogger()
	}
	app := &App[C]{
		Name:            svc.Name,
		Version:         svc.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(log),
		Logger:          log,
		Summary:         NewSummary(svc.Name, svc.Version),
		gracefulTimeout: defaultGracefulTimeout,
		summaryOut:      o.summary,
		signals:         o.signals,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if len(app.signals) == 0 {
		app.signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return app, nil
}

func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// ReadyCheck joins one error per component that is not healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var errs []error
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		if h.Message != "" {
			errs = append(errs, fmt.Errorf("%s=%s(%s)", h.Name, h.Status, h.Message))
		} else {
			errs = append(errs, fmt.Errorf("%s=%s", h.Name, h.Status))
		}
	}
	return errors.Join(errs...)
}

// Run starts the application and serves until a signal arrives or ctx
// ends, then shuts down.
func (a *App[C]) Run(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	if err := a.startup(sigCtx); err != nil {
		return errors.Join(err, a.shutdown())
	}
	a.Logger.Info("Application ready, waiting for shutdown signal")
	<-sigCtx.Done()
	a.logStopReason(ctx)
	return a.shutdown()
}

// RunTask starts the application, runs task and shuts down when it
// returns. A signal cancels the task's context instead of killing the
// process, so components still stop in order. The task's error wins over
// a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	if err := a.startup(taskCtx); err != nil {
		return errors.Join(err, a.shutdown())
	}
	err := task(taskCtx)
	if taskCtx.Err() != nil {
		a.logStopReason(ctx)
	}
	if stopErr := a.shutdown(); err == nil {
		err = stopErr
	}
	return err
}

func (a *App[C]) logStopReason(parent context.Context) {
	if parent.Err() != nil {
		a.Logger.Info("Context canceled, shutting down")
		return
	}
	a.Logger.Info("Received shutdown signal")
}

func (a *App[C]) startup(ctx context.Context) error {
	began := time.Now()
	a.Logger.Debug("Starting application", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := a.runHooks(ctx, phaseStart); err != nil {
		return err
	}
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := a.runHooks(ctx, phaseReady); err != nil {
		return err
	}

	a.Summary.SetStartupDuration(time.Since(began))
	if a.summaryOut != nil {
		a.Summary.Write(ctx, a.summaryOut, a.Components)
	}
	return nil
}

// shutdown runs the stop hooks, then stops components in reverse order,
// all within the graceful timeout.
func (a *App[C]) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	err := errors.Join(a.runHooks(ctx, phaseStop), a.Components.StopAll(ctx))
	if err != nil {
		a.Logger.Error("Shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
	} else {
		a.Logger.Debug("Application shutdown complete")
	}
	return err
}
