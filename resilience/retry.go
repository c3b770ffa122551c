package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	apperrors "github.com/kbukum/interviewscribe/errors"
)

// RetryConfig configures Retry. Zero fields take DefaultRetryConfig values.
type RetryConfig struct {
	// MaxAttempts counts the first call.
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	BackoffFactor  float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter randomizes each delay by up to this fraction, 0 to 1.
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`

	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// DefaultRetryIf retries everything except context errors and AppErrors
// whose code is not retryable.
func DefaultRetryIf(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable()
	}
	return true
}

func (c *RetryConfig) applyDefaults() {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = d.RetryIf
	}
}

// schedule returns the exponential delay sequence for cfg.
func (c RetryConfig) schedule() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.InitialBackoff,
		RandomizationFactor: min(max(c.Jitter, 0), 1),
		Multiplier:          c.BackoffFactor,
		MaxInterval:         c.MaxBackoff,
	}
	b.Reset()
	return b
}

// Retry calls fn until it succeeds, fails with an error RetryIf rejects,
// runs out of attempts or ctx ends. It returns the last error.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	cfg.applyDefaults()
	delays := cfg.schedule()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}

		wait := delays.NextBackOff()
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// RetryFunc is Retry for functions without a result.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// Backoff returns the delay that follows the given 1-based attempt.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	cfg.applyDefaults()
	delays := cfg.schedule()
	var d time.Duration
	for range max(attempt, 1) {
		d = delays.NextBackOff()
	}
	return d
}
