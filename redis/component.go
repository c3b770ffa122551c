package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/interviewscribe/component"
	"github.com/kbukum/interviewscribe/logger"
)

// Component connects on Start and fails fast when the server does not answer.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.OrGlobal(log)}
}

// Client is nil until Start succeeds.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return err
	}
	c.client = client
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	var ping func(context.Context) error
	if c.client != nil {
		ping = c.client.Ping
	}
	return component.Check(ctx, c.Name(), ping)
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s db=%d pool=%d", c.cfg.Addr, c.cfg.DB, c.cfg.PoolSize)
	if c.cfg.TLS.IsEnabled() {
		details += " tls"
	}
	return component.Description{Name: "Redis", Type: "redis", Details: details}
}
