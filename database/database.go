package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/resilience"
)

// DB is an open SQLite database.
type DB struct {
	gorm *gorm.DB
	path string
	log  *logger.Logger

	mu     sync.Mutex
	closed bool
}

// Open opens the SQLite file at cfg.Path. Failures that look transient,
// such as a locked file, are retried up to cfg.MaxRetries times.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log = logger.OrGlobal(log).WithComponent("database")
	slow, _ := time.ParseDuration(cfg.SlowQueryThreshold)

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries
	retry.InitialBackoff = 250 * time.Millisecond
	retry.RetryIf = IsRetryableError
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("Opening database failed, retrying", logger.Fields(
			"attempt", attempt, logger.FieldError, err.Error(), "backoff", backoff.String()))
	}

	gdb, err := resilience.Retry(ctx, retry, func() (*gorm.DB, error) {
		gdb, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
			Logger: newQueryLogger(log, slow, cfg.LogLevel),
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return gdb, nil
	})
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil {
		sqlDB.SetConnMaxLifetime(lifetime)
	}

	log.Debug("Database opened", logger.Fields("path", cfg.Path, "journal", cfg.JournalMode))
	return &DB{gorm: gdb, path: cfg.Path, log: log}, nil
}

// WithContext returns a gorm session bound to ctx.
func (d *DB) WithContext(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

// AutoMigrate creates or alters the tables of models.
func (d *DB) AutoMigrate(models ...any) error {
	for _, m := range models {
		if err := d.gorm.AutoMigrate(m); err != nil {
			return fmt.Errorf("database: migrate %T: %w", m, err)
		}
	}
	return nil
}

// HasTable reports whether the table of model exists.
func (d *DB) HasTable(model any) bool {
	return d.gorm.Migrator().HasTable(model)
}

// PingContext checks that the file is still reachable.
func (d *DB) PingContext(ctx context.Context) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return fmt.Errorf("database is closed")
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the pool. Later calls are no-ops.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	d.log.Debug("Database closed", logger.Fields("path", d.path))
	return sqlDB.Close()
}
