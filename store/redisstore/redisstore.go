// Package redisstore is a store.Backend on Redis strings.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/interviewscribe/redis"
	"github.com/kbukum/interviewscribe/store"
)

// Backend stores each record as a Redis string under an optional namespace.
type Backend struct {
	client    *redis.Client
	namespace string
}

var _ store.Backend = (*Backend)(nil)

// New creates a Backend. A non-empty namespace prefixes every key with "<namespace>:".
func New(client *redis.Client, namespace string) *Backend {
	return &Backend{client: client, namespace: namespace}
}

func (b *Backend) fullKey(key string) string {
	if b.namespace == "" {
		return key
	}
	return b.namespace + ":" + key
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := b.client.GetBytes(ctx, b.fullKey(key))
	if err != nil {
		return nil, false, mapError(err)
	}
	return v, ok, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	return mapError(b.client.Set(ctx, b.fullKey(key), value, 0))
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	return mapError(b.client.Del(ctx, b.fullKey(key)))
}

func (b *Backend) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := b.client.ScanKeys(ctx, escapeGlob(b.fullKey(prefix))+"*")
	if err != nil {
		return nil, mapError(err)
	}
	trim := ""
	if b.namespace != "" {
		trim = b.namespace + ":"
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, trim))
	}
	return out, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globEscaper.Replace(s) }

// mapError translates Redis failures onto the store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case strings.HasPrefix(err.Error(), "OOM"):
		return fmt.Errorf("%w: %v", store.ErrQuotaExceeded, err)
	case errors.Is(err, goredis.ErrClosed), errors.As(err, &netErr), isConnRefused(err):
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	default:
		return err
	}
}

func isConnRefused(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "EOF") || strings.Contains(msg, "READONLY")
}
