package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/interviewscribe/logger"
)

// DefaultDebounce is the quiet period before pending writes are flushed.
const DefaultDebounce = 300 * time.Millisecond

// WriteErrorKind classifies a failed write.
type WriteErrorKind string

const (
	ErrorQuotaExceeded      WriteErrorKind = "quota_exceeded"
	ErrorStorageUnavailable WriteErrorKind = "storage_unavailable"
	ErrorUnknown            WriteErrorKind = "unknown"
)

// WriteResult reports the outcome of a write. Writes never return errors.
type WriteResult struct {
	OK      bool           `json:"ok"`
	Error   WriteErrorKind `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

var okResult = WriteResult{OK: true}

// Err converts a failed result into an error, or nil when OK.
func (r WriteResult) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("store write failed (%s): %s", r.Error, r.Message)
}

func failed(err error) WriteResult {
	kind := ErrorUnknown
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		kind = ErrorQuotaExceeded
	case errors.Is(err, ErrUnavailable):
		kind = ErrorStorageUnavailable
	}
	return WriteResult{Error: kind, Message: err.Error()}
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets the quiet period for DebouncedWrite.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMigrations replaces the registered schema migrations.
func WithMigrations(m ...Migration) Option {
	return func(s *Store) { s.migrations = m }
}

// Store is the typed persistence layer over a Backend.
type Store struct {
	backend    Backend
	log        *logger.Logger
	debounce   time.Duration
	now        func() time.Time
	migrations []Migration

	// writeMu orders immediate writes against flushes.
	writeMu sync.Mutex
	// projMu guards read-modify-write of the project list.
	projMu sync.Mutex

	mu      sync.Mutex
	pending map[string][]byte
	timer   *time.Timer
}

// New creates a Store on backend.
func New(backend Backend, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		log:        logger.OrGlobal(log).WithComponent("store"),
		debounce:   DefaultDebounce,
		now:        time.Now,
		migrations: DefaultMigrations(),
		pending:    make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Read loads the record at key. A missing record reads as nil. A record that
// fails to decode or validate is deleted and reads as nil.
func Read[T any](ctx context.Context, s *Store, key string, validate func(*T) error) *T {
	data, ok, err := s.raw(ctx, key)
	if err != nil {
		s.log.Warn("Read failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.discard(ctx, key, err)
		return nil
	}
	if validate != nil {
		if err := validate(&v); err != nil {
			s.discard(ctx, key, err)
			return nil
		}
	}
	return &v
}

// raw returns the pending value for key if any, else the stored one.
func (s *Store) raw(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	if v, ok := s.pending[key]; ok {
		s.mu.Unlock()
		return v, true, nil
	}
	s.mu.Unlock()
	return s.backend.Get(ctx, key)
}

func (s *Store) discard(ctx context.Context, key string, cause error) {
	s.log.Warn("Discarding corrupt record", logger.Fields(logger.FieldKey, key, logger.FieldError, cause.Error()))
	s.CancelPending(key)
	if err := s.backend.Delete(ctx, key); err != nil {
		s.log.Warn("Delete of corrupt record failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
	}
}

// Write serializes value and stores it immediately. It supersedes any
// pending debounced value for the same key.
func (s *Store) Write(ctx context.Context, key string, value any) WriteResult {
	data, err := json.Marshal(value)
	if err != nil {
		return WriteResult{Error: ErrorUnknown, Message: err.Error()}
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.CancelPending(key)
	return s.put(ctx, key, data)
}

func (s *Store) put(ctx context.Context, key string, data []byte) WriteResult {
	if err := s.backend.Set(ctx, key, data); err != nil {
		res := failed(err)
		s.log.Warn("Write failed", logger.Fields(logger.FieldKey, key, "kind", string(res.Error), logger.FieldError, err.Error()))
		return res
	}
	return okResult
}

// Delete removes key and any pending write for it.
func (s *Store) Delete(ctx context.Context, key string) WriteResult {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.CancelPending(key)
	if err := s.backend.Delete(ctx, key); err != nil {
		return failed(err)
	}
	return okResult
}

// DebouncedWrite schedules value for key. The value is serialized now. Every
// call restarts the shared quiet-period timer.
func (s *Store) DebouncedWrite(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("Debounced write dropped", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = data
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushFromTimer)
}

func (s *Store) flushFromTimer() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = s.Flush(ctx)
}

// CancelPending drops the pending write for key, if any.
func (s *Store) CancelPending(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	if len(s.pending) == 0 && s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
}

// Pending reports the number of keys awaiting a debounced flush.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush writes every pending entry synchronously. With nothing pending it
// returns OK. The first failure is returned after all entries are attempted.
func (s *Store) Flush(ctx context.Context) WriteResult {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	batch := s.pending
	s.pending = make(map[string][]byte)
	s.mu.Unlock()

	if len(batch) == 0 {
		return okResult
	}

	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := okResult
	for _, k := range keys {
		if res := s.put(ctx, k, batch[k]); !res.OK && result.OK {
			result = res
		}
	}
	s.log.Debug("Flushed pending writes", logger.Fields("count", len(keys), "ok", result.OK))
	return result
}

// Close flushes pending writes.
func (s *Store) Close(ctx context.Context) WriteResult {
	return s.Flush(ctx)
}
