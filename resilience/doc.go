// Package resilience guards outbound calls.
//
// Retry spaces attempts with an exponential schedule from
// github.com/cenkalti/backoff/v5 and stops early on AppErrors whose code
// is not retryable. RateLimiter is a token bucket backed by
// golang.org/x/time/rate. CircuitBreaker fails fast once an upstream keeps
// failing.
//
// httpclient combines them per request:
//
//	if err := rl.Wait(ctx); err != nil {
//	    return err
//	}
//	return cb.Execute(func() error { return send(ctx) })
package resilience
