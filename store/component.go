package store

import (
	"context"
	"fmt"

	"github.com/kbukum/interviewscribe/component"
	"github.com/kbukum/interviewscribe/logger"
)

// Component adapts a Store to the component lifecycle. Stop flushes
// pending writes.
type Component struct {
	store *Store
	kind  string
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps s. kind names the backend for the startup summary.
func NewComponent(s *Store, kind string) *Component {
	return &Component{store: s, kind: kind}
}

// Store returns the wrapped store.
func (c *Component) Store() *Store { return c.store }

// Name returns the component name.
func (c *Component) Name() string { return "store" }

// Start prepares the schema. Project statuses are left alone; only a
// process that starts runs may call ReconcileInterrupted.
func (c *Component) Start(ctx context.Context) error {
	report := c.store.Initialize(ctx)
	if !report.OK() {
		c.store.log.Warn("Store schema upgrade incomplete", logger.Fields("failed", report.Failed))
	}
	return nil
}

// Stop flushes pending debounced writes.
func (c *Component) Stop(ctx context.Context) error {
	return c.store.Close(ctx).Err()
}

// Health probes the backend.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.store.Available(ctx) {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "backend unavailable"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Store",
		Type:    "store",
		Details: fmt.Sprintf("backend=%s debounce=%s", c.kind, c.store.debounce),
	}
}
