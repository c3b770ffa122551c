package bootstrap

import (
	"context"
	"errors"
	"fmt"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

type phase int

const (
	phaseStart phase = iota
	phaseReady
	phaseStop
	phaseCount
)

func (p phase) String() string {
	return [...]string{"start", "ready", "stop"}[p]
}

// OnStart registers hooks that run after every component has started.
func (a *App[C]) OnStart(hooks ...Hook) { a.hooks[phaseStart] = append(a.hooks[phaseStart], hooks...) }

// OnReady registers hooks that run after the ready check.
func (a *App[C]) OnReady(hooks ...Hook) { a.hooks[phaseReady] = append(a.hooks[phaseReady], hooks...) }

// OnStop registers hooks that run before components stop. Every stop hook
// runs even when an earlier one fails.
func (a *App[C]) OnStop(hooks ...Hook) { a.hooks[phaseStop] = append(a.hooks[phaseStop], hooks...) }

func (a *App[C]) runHooks(ctx context.Context, p phase) error {
	var errs []error
	for i, h := range a.hooks[p] {
		if err := h(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s hook %d: %w", p, i, err))
			if p != phaseStop {
				break
			}
		}
	}
	return errors.Join(errs...)
}
