package database

import (
	"fmt"
	"time"
)

// Config holds database connection configuration.
type Config struct {
	// Path is the SQLite database file. ":memory:" opens a private in-memory database.
	Path string `mapstructure:"path"`

	// BusyTimeout is how long a connection waits on a locked database, in milliseconds.
	BusyTimeout int `mapstructure:"busy_timeout"`

	// JournalMode is the sqlite journal mode, e.g. WAL or DELETE.
	JournalMode string `mapstructure:"journal_mode"`

	// MaxOpenConns sets the maximum number of open connections.
	// SQLite serializes writers, so the default is 1.
	MaxOpenConns int `mapstructure:"max_open_conns"`

	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetime is the maximum time a connection may be reused (e.g. "1h").
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `mapstructure:"max_retries"`

	// SlowQueryThreshold is the duration above which queries are logged as slow.
	SlowQueryThreshold string `mapstructure:"slow_query_threshold"`

	// LogLevel is the GORM log level: silent, error, warn or info.
	LogLevel string `mapstructure:"log_level"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "scribe.db"
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5000
	}
	if c.JournalMode == "" {
		c.JournalMode = "WAL"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 1
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "1h"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.SlowQueryThreshold == "" {
		c.SlowQueryThreshold = "200ms"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks that fields are present and parseable.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns (%d) must be <= max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime %q: %w", c.ConnMaxLifetime, err)
	}
	if _, err := time.ParseDuration(c.SlowQueryThreshold); err != nil {
		return fmt.Errorf("invalid slow_query_threshold %q: %w", c.SlowQueryThreshold, err)
	}
	switch c.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// DSN builds the go-sqlite3 connection string.
func (c *Config) DSN() string {
	if c.Path == ":memory:" {
		return c.Path
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=%s", c.Path, c.BusyTimeout, c.JournalMode)
}
