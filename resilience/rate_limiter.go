package resilience

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when waiting for a token cannot finish
// before the context deadline.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
	// Rate is the sustained number of calls per second. Defaults to 10.
	Rate float64 `yaml:"rate" mapstructure:"rate"`
	// Burst is the bucket size. Defaults to Rate, at least 1.
	Burst int `yaml:"burst" mapstructure:"burst"`
}

// RateLimiter throttles outbound calls with a token bucket.
type RateLimiter struct {
	name string
	lim  *rate.Limiter
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.Rate))
	}
	return &RateLimiter{name: cfg.Name, lim: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
}

// Allow takes a token if one is available now.
func (rl *RateLimiter) Allow() bool { return rl.lim.Allow() }

// Wait blocks until a token is available. It returns ctx's error when ctx
// ends first, and ErrRateLimited without waiting when the deadline would
// pass before the token arrives.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if err := rl.lim.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", ErrRateLimited, rl.name, err)
	}
	return nil
}
