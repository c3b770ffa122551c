package main

import (
	"context"
	"fmt"

	"github.com/kbukum/interviewscribe/bootstrap"
	"github.com/kbukum/interviewscribe/component"
	"github.com/kbukum/interviewscribe/database"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/observability"
	"github.com/kbukum/interviewscribe/redis"
	"github.com/kbukum/interviewscribe/store"
	"github.com/kbukum/interviewscribe/store/redisstore"
	"github.com/kbukum/interviewscribe/store/sqlstore"
)

// Scribe is the process-wide wiring shared by every subcommand.
type Scribe struct {
	*bootstrap.App[*AppConfig]
	store *storeComponent
}

// Store returns the started store. It is nil before startup.
func (s *Scribe) Store() *store.Store {
	if s.store == nil {
		return nil
	}
	return s.store.Store()
}

// newScribe builds the app. withStore registers the configured backend and
// the store on top of it; the store's Start runs the schema upgrade and
// marks runs abandoned by an earlier process as interrupted.
func newScribe(cfg *AppConfig, withStore bool, opts ...bootstrap.Option) (*Scribe, error) {
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	s := &Scribe{App: app}

	var shutdownTelemetry func(context.Context) error
	app.OnStart(func(ctx context.Context) error {
		shutdown, err := observability.Setup(ctx, cfg.Name, cfg.Version, cfg.Environment, cfg.Observability)
		if err != nil {
			app.Logger.Warn("Telemetry disabled", logger.Fields(logger.FieldError, err.Error()))
		}
		shutdownTelemetry = shutdown
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		if shutdownTelemetry == nil {
			return nil
		}
		return shutdownTelemetry(ctx)
	})

	if withStore {
		sc, err := s.registerStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		s.store = sc
	}
	return s, nil
}

// registerStore registers the backend component first so it stops after
// the store has flushed.
func (s *Scribe) registerStore(cfg StoreConfig) (*storeComponent, error) {
	log := s.Logger.WithComponent("store")
	sc := &storeComponent{kind: cfg.Backend, log: log, opts: []store.Option{store.WithDebounce(cfg.Debounce)}}

	switch cfg.Backend {
	case BackendMemory:
		sc.backend = func() (store.Backend, error) { return store.NewMemoryBackend(), nil }
	case BackendSQLite:
		db := database.NewComponent(cfg.SQLite, log)
		if err := s.RegisterComponent(db); err != nil {
			return nil, err
		}
		sc.backend = func() (store.Backend, error) {
			if db.DB() == nil {
				return nil, fmt.Errorf("store: database not started")
			}
			return sqlstore.New(db.DB())
		}
	case BackendRedis:
		rc := redis.NewComponent(cfg.Redis, log)
		if err := s.RegisterComponent(rc); err != nil {
			return nil, err
		}
		sc.backend = func() (store.Backend, error) {
			if rc.Client() == nil {
				return nil, fmt.Errorf("store: redis not started")
			}
			return redisstore.New(rc.Client(), cfg.Namespace), nil
		}
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}

	if err := s.RegisterComponent(sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// storeComponent builds the store once its backend component has started
// and delegates the lifecycle to store.Component.
type storeComponent struct {
	kind    string
	log     *logger.Logger
	opts    []store.Option
	backend func() (store.Backend, error)
	inner   *store.Component
}

var _ component.Component = (*storeComponent)(nil)

func (c *storeComponent) Name() string { return "store" }

func (c *storeComponent) Start(ctx context.Context) error {
	b, err := c.backend()
	if err != nil {
		return err
	}
	c.inner = store.NewComponent(store.New(b, c.log, c.opts...), c.kind)
	return c.inner.Start(ctx)
}

func (c *storeComponent) Stop(ctx context.Context) error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Stop(ctx)
}

func (c *storeComponent) Health(ctx context.Context) component.Health {
	if c.inner == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return c.inner.Health(ctx)
}

func (c *storeComponent) Describe() component.Description {
	if c.inner == nil {
		return component.Description{Name: "Store", Type: "store", Details: "backend=" + c.kind}
	}
	return c.inner.Describe()
}

func (c *storeComponent) Store() *store.Store {
	if c.inner == nil {
		return nil
	}
	return c.inner.Store()
}
