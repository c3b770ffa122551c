package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/interviewscribe/httpclient/sse"
	"github.com/kbukum/interviewscribe/resilience"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 << 10

// Client sends requests through the configured auth, rate limiter and
// circuit breaker.
type Client struct {
	cfg Config
	// buffered enforces cfg.Timeout. stream has no timeout and relies on
	// the request context.
	buffered *http.Client
	stream   *http.Client
	cb       *resilience.CircuitBreaker
	rl       *resilience.RateLimiter
}

func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt, err := cfg.roundTripper()
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}

	c := &Client{
		cfg:      cfg,
		buffered: &http.Client{Transport: rt, Timeout: cfg.Timeout},
		stream:   &http.Client{Transport: rt},
	}
	if cfg.CircuitBreaker != nil {
		c.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		c.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	return c, nil
}

// Do sends req and buffers the response. A non-2xx status returns the
// response together with a classified *Error. Retry applies unless the
// body is a one-shot io.Reader.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	once := func() (*Response, error) {
		return guard(ctx, c, func() (*Response, error) { return c.buffer(ctx, req) })
	}
	if _, oneShot := req.Body.(io.Reader); c.cfg.Retry == nil || oneShot {
		return once()
	}
	return resilience.Retry(ctx, *c.cfg.Retry, once)
}

// DoStream sends req and hands back the open body. Event streams are
// wrapped in an sse.Reader. The caller closes the StreamResponse.
func (c *Client) DoStream(ctx context.Context, req Request) (*StreamResponse, error) {
	resp, err := guard(ctx, c, func() (*http.Response, error) {
		r, err := c.send(ctx, c.stream, req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode < 400 {
			return r, nil
		}
		defer func() { _ = r.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(r.Body, maxErrorBody))
		return nil, ClassifyStatusCode(r.StatusCode, body)
	})
	if err != nil {
		return nil, err
	}

	out := &StreamResponse{StatusCode: resp.StatusCode, Headers: resp.Header}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		out.SSE = sse.NewReader(resp.Body)
	} else {
		out.Body = resp.Body
	}
	return out, nil
}

// Forward sends req without timeout, limiter or breaker and returns the
// raw response whatever its status. The caller owns the body.
func (c *Client) Forward(ctx context.Context, req Request) (*http.Response, error) {
	return c.send(ctx, c.stream, req)
}

// guard runs call behind the client's rate limiter and circuit breaker.
func guard[T any](ctx context.Context, c *Client, call func() (T, error)) (T, error) {
	var out T
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return out, err
		}
	}
	if c.cb == nil {
		return call()
	}
	err := c.cb.Execute(func() error {
		var err error
		out, err = call()
		return err
	})
	return out, err
}

func (c *Client) buffer(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.send(ctx, c.buffered, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, transportError(ctx, err)
		}
		return nil, transportFailure(KindConnection, fmt.Errorf("read response body: %w", err))
	}

	out := &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}
	if statusErr := ClassifyStatusCode(resp.StatusCode, body); statusErr != nil {
		return out, statusErr
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, hc *http.Client, req Request) (*http.Response, error) {
	httpReq, err := req.build(ctx, &c.cfg)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return resp, nil
}

// transportError reports a user stop as context.Canceled and a passed
// deadline as KindTimeout.
func transportError(ctx context.Context, err error) error {
	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.Canceled):
		return ctxErr
	case ctxErr != nil:
		return transportFailure(KindTimeout, err)
	default:
		return transportFailure(KindConnection, err)
	}
}
