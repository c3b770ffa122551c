package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/interviewscribe/errors"
)

// RateLimitConfig configures a per-key sliding-window limiter.
type RateLimitConfig struct {
	// Limit is the number of requests allowed per Window and key.
	Limit int `yaml:"limit" mapstructure:"limit"`
	// Window is the sliding window length.
	Window time.Duration `yaml:"window" mapstructure:"window"`

	// KeyFunc extracts the key from a request. Defaults to ClientIP.
	KeyFunc func(*http.Request) string `yaml:"-" mapstructure:"-"`
	// Now replaces the clock in tests.
	Now func() time.Time `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.Limit <= 0 {
		c.Limit = 60
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.KeyFunc == nil {
		c.KeyFunc = ClientIP
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// ClientIP keys requests by the remote address without its port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter counts requests per key over a sliding window. Idle keys are
// swept during Allow, so no background goroutine is needed.
type RateLimiter struct {
	cfg RateLimitConfig

	mu        sync.Mutex
	requests  map[string][]time.Time
	lastSweep time.Time
}

// NewRateLimiter creates a limiter from cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg.ApplyDefaults()
	return &RateLimiter{
		cfg:       cfg,
		requests:  make(map[string][]time.Time),
		lastSweep: cfg.Now(),
	}
}

// Allow records a request for key. When the key is over its limit it
// returns false and how long until the oldest request leaves the window.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.cfg.Now()
	cutoff := now.Add(-rl.cfg.Window)
	if now.Sub(rl.lastSweep) >= rl.cfg.Window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	valid := filterAfter(rl.requests[key], cutoff)
	if len(valid) >= rl.cfg.Limit {
		rl.requests[key] = valid
		return false, valid[0].Sub(cutoff)
	}
	rl.requests[key] = append(valid, now)
	return true, 0
}

// Keys reports how many keys are tracked.
func (rl *RateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func (rl *RateLimiter) sweep(cutoff time.Time) {
	for key, times := range rl.requests {
		if valid := filterAfter(times, cutoff); len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

// Middleware answers over-limit requests with 429, a Retry-After header
// and a RATE_LIMITED error body.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := rl.Allow(rl.cfg.KeyFunc(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				WriteError(w, errors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns the middleware of a new limiter.
func RateLimit(cfg RateLimitConfig) Middleware {
	return NewRateLimiter(cfg).Middleware()
}

// filterAfter drops timestamps at or before cutoff. Timestamps are in
// ascending order, so the kept ones form a suffix.
func filterAfter(times []time.Time, cutoff time.Time) []time.Time {
	for i, t := range times {
		if t.After(cutoff) {
			return times[i:]
		}
	}
	return nil
}
