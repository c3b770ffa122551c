package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/interviewscribe/component"
	"github.com/kbukum/interviewscribe/logger"
)

// healthKey is statted by Health. Its absence is the expected answer.
const healthKey = ".scribe-health"

// Component opens the configured backend on Start.
type Component struct {
	cfg     Config
	log     *logger.Logger
	backend Storage
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.OrGlobal(log)}
}

// Storage is nil until Start succeeds.
func (c *Component) Storage() Storage { return c.backend }

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(ctx context.Context) error {
	s, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.backend = s
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.backend = nil
	return nil
}

// Health stats a probe key. Not found still proves the backend answers.
func (c *Component) Health(ctx context.Context) component.Health {
	var ping func(context.Context) error
	if b := c.backend; b != nil {
		ping = func(ctx context.Context) error {
			if _, err := b.Stat(ctx, healthKey); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			return nil
		}
	}
	return component.Check(ctx, c.Name(), ping)
}

func (c *Component) Describe() component.Description {
	details := "root=" + c.cfg.Root
	if c.cfg.Provider == ProviderS3 {
		details = fmt.Sprintf("bucket=%s region=%s", c.cfg.Bucket, c.cfg.Region)
		if c.cfg.Endpoint != "" {
			details += " endpoint=" + c.cfg.Endpoint
		}
	}
	return component.Description{Name: "Storage (" + c.cfg.Provider + ")", Type: "storage", Details: details}
}
