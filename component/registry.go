package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/interviewscribe/logger"
)

const (
	// DefaultStopTimeout bounds each component's Stop.
	DefaultStopTimeout = 10 * time.Second
	// DefaultHealthTimeout bounds each component's Health during HealthAll.
	DefaultHealthTimeout = 3 * time.Second
)

// Registry starts components in registration order and stops them in
// reverse. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []Component
	started map[string]bool
	log     *logger.Logger

	StopTimeout   time.Duration
	HealthTimeout time.Duration
}

// NewRegistry returns an empty registry. A nil log uses the global logger.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		started:       make(map[string]bool),
		log:           logger.OrGlobal(log).WithComponent("registry"),
		StopTimeout:   DefaultStopTimeout,
		HealthTimeout: DefaultHealthTimeout,
	}
}

// Register appends c. Register dependencies before their dependents.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.order {
		if existing.Name() == c.Name() {
			return fmt.Errorf("component %q already registered", c.Name())
		}
	}
	r.order = append(r.order, c)
	return nil
}

// StartAll stops at the first failure. Components started before it stay
// marked started so StopAll releases them.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.order {
		if r.started[c.Name()] {
			continue
		}
		begin := time.Now()
		if err := c.Start(ctx); err != nil {
			r.log.Error("Component start failed", logger.Fields("component", c.Name(), logger.FieldError, err.Error()))
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
		r.started[c.Name()] = true
		r.log.Debug("Component started", logger.Fields("component", c.Name(), "took", time.Since(begin).String()))
	}
	return nil
}

// StopAll stops every started component, newest first, and joins the errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for i := len(r.order) - 1; i >= 0; i-- {
		c := r.order[i]
		if !r.started[c.Name()] {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, r.StopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		delete(r.started, c.Name())
		if err != nil {
			r.log.Error("Component stop failed", logger.Fields("component", c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Debug("Component stopped", logger.Fields("component", c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll checks every component concurrently. Results keep
// registration order. A check that outlives HealthTimeout reports unhealthy.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	components := r.All()
	out := make([]Health, len(components))
	var g errgroup.Group
	for i, c := range components {
		g.Go(func() error {
			out[i] = r.check(ctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Registry) check(ctx context.Context, c Component) Health {
	ctx, cancel := context.WithTimeout(ctx, r.HealthTimeout)
	defer cancel()
	done := make(chan Health, 1)
	go func() { done <- c.Health(ctx) }()
	select {
	case h := <-done:
		return h
	case <-ctx.Done():
		return Health{Name: c.Name(), Status: StatusUnhealthy, Message: "health check timed out"}
	}
}

// Descriptions lists Describable components in registration order.
func (r *Registry) Descriptions() []Description {
	var out []Description
	for _, c := range r.All() {
		d, ok := c.(Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		out = append(out, desc)
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.order {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Component(nil), r.order...)
}
