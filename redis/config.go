package redis

import (
	"fmt"
	"net"
	"time"

	"github.com/kbukum/interviewscribe/security"
)

// Config selects a Redis server and tunes the connection pool.
type Config struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// TLS enables rediss:// style connections when any field is set.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 4
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = c.ReadTimeout
	}
}

func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("addr %q: %w", c.Addr, err)
	}
	if c.DB < 0 {
		return fmt.Errorf("db must be >= 0 (got %d)", c.DB)
	}
	if c.MinIdleConns > c.PoolSize {
		return fmt.Errorf("min_idle_conns (%d) exceeds pool_size (%d)", c.MinIdleConns, c.PoolSize)
	}
	return c.TLS.Validate()
}
