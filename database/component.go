package database

import (
	"context"
	"fmt"

	"github.com/kbukum/interviewscribe/component"
	"github.com/kbukum/interviewscribe/logger"
)

// Component opens the database on Start and closes it on Stop.
type Component struct {
	cfg Config
	log *logger.Logger
	db  *DB
}

var _ component.Component = (*Component)(nil)

// NewComponent returns an unopened database component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.OrGlobal(log)}
}

// DB is nil until Start succeeds.
func (c *Component) DB() *DB { return c.db }

func (c *Component) Name() string { return "sqlite" }

func (c *Component) Start(ctx context.Context) error {
	db, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.db = db
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	var ping func(context.Context) error
	if c.db != nil {
		ping = c.db.PingContext
	}
	return component.Check(ctx, c.Name(), ping)
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "SQLite",
		Type:    "database",
		Details: fmt.Sprintf("%s (journal=%s, busy_timeout=%dms)", c.cfg.Path, c.cfg.JournalMode, c.cfg.BusyTimeout),
	}
}
