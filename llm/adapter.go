package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kbukum/interviewscribe/httpclient"
)

var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter streams generations from one provider through its Dialect.
type Adapter struct {
	name     string
	client   *httpclient.Client
	dialect  Dialect
	defaults CompletionRequest
}

// New looks up cfg.Dialect in the registry and builds an adapter for it.
func New(cfg Config) (*Adapter, error) {
	d, err := Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(d, cfg)
}

// NewWithDialect builds an adapter around an explicit dialect.
func NewWithDialect(d Dialect, cfg Config) (*Adapter, error) {
	if d == nil {
		return nil, ErrNoDialect
	}
	if cfg.Dialect == "" {
		cfg.Dialect = d.Name()
	}
	cfg.ApplyDefaults()

	client, err := httpclient.New(cfg.clientConfig())
	if err != nil {
		return nil, fmt.Errorf("llm: %s client: %w", cfg.Name, err)
	}
	return &Adapter{
		name:    cfg.Name,
		client:  client,
		dialect: d,
		defaults: CompletionRequest{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
	}, nil
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Dialect() Dialect { return a.dialect }

// Probe issues the dialect's probe request. A nil error means the provider
// is reachable and accepted the credentials.
func (a *Adapter) Probe(ctx context.Context) error {
	path := a.dialect.ProbePath()
	if path == "" {
		return nil
	}
	if _, err := a.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path}); err != nil {
		return fmt.Errorf("llm: probe %s: %w", a.name, err)
	}
	return nil
}

// Stream starts a generation and returns its chunks. The channel closes
// after the chunk marked Done or after a chunk carrying Err. Cancelling
// ctx ends the stream with ctx.Err().
func (a *Adapter) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	a.fill(&req)
	body, err := a.dialect.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("llm: encode request: %w", err)
	}
	resp, err := a.client.DoStream(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   a.dialect.StreamPath(req.Model),
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: stream: %w", err)
	}

	ch := make(chan StreamChunk)
	go a.pump(ctx, resp, ch)
	return ch, nil
}

func (a *Adapter) fill(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.defaults.Model
	}
	if req.Temperature == nil {
		req.Temperature = a.defaults.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.defaults.MaxTokens
	}
}
