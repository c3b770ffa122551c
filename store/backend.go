package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// Backend errors that map onto WriteResult kinds.
var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrUnavailable   = errors.New("storage unavailable")
)

// Backend is a durable byte-oriented key/value store.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// MemoryBackend is an in-process Backend with an optional byte quota.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     map[string][]byte
	quota    int64
	disabled bool
}

// NewMemoryBackend creates an empty, unlimited MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// SetQuota limits the total key plus value bytes. Zero disables the limit.
func (m *MemoryBackend) SetQuota(bytes int64) {
	m.mu.Lock()
	m.quota = bytes
	m.mu.Unlock()
}

// SetDisabled makes every operation fail with ErrUnavailable.
func (m *MemoryBackend) SetDisabled(disabled bool) {
	m.mu.Lock()
	m.disabled = disabled
	m.mu.Unlock()
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.disabled {
		return nil, false, ErrUnavailable
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrUnavailable
	}
	if m.quota > 0 {
		used := m.sizeLocked()
		if old, ok := m.data[key]; ok {
			used -= int64(len(key) + len(old))
		}
		if used+int64(len(key)+len(value)) > m.quota {
			return ErrQuotaExceeded
		}
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrUnavailable
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.disabled {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) sizeLocked() int64 {
	var n int64
	for k, v := range m.data {
		n += int64(len(k) + len(v))
	}
	return n
}
