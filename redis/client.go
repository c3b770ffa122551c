package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/interviewscribe/logger"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

// Client is a pooled connection to one Redis database.
type Client struct {
	rdb    *goredis.Client
	addr   string
	log    *logger.Logger
	closed atomic.Bool
}

// New builds a client from cfg. No connection is made until the first command.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		TLSConfig:    tlsCfg,
	})
	log = logger.OrGlobal(log).WithComponent("redis")
	log.Debug("Redis client configured", logger.Fields("addr", cfg.Addr, "db", cfg.DB, "tls", tlsCfg != nil))
	return &Client{rdb: rdb, addr: cfg.Addr, log: log}, nil
}

// Ping round-trips a PING.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return goredis.ErrClosed
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping %s: %w", c.addr, err)
	}
	return nil
}

// GetBytes returns the string at key. A missing key is (nil, false, nil).
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return v, true, nil
}

// Set writes value at key. A zero ttl keeps the key forever.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Exists returns how many of keys are present.
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	return c.rdb.Exists(ctx, keys...).Result()
}

// ScanKeys walks the keyspace with SCAN and returns every key matching the
// glob pattern. Keys may repeat if the keyspace is resized mid-scan.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, iter.Err()
}

// IsAvailable is Ping reduced to a bool.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}

// Close releases the pool. Only the first call has an effect.
func (c *Client) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.log.Debug("Redis client closed", logger.Fields("addr", c.addr))
	return c.rdb.Close()
}
