package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/httpclient"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/observability"
	"github.com/kbukum/interviewscribe/resilience"
	"github.com/kbukum/interviewscribe/security"
)

// Initiation modes.
const (
	ModeDirect = "direct"
	ModeRelay  = "relay"
)

// Config configures the upload transport.
type Config struct {
	// Mode is "direct" or "relay".
	Mode string `yaml:"mode" mapstructure:"mode"`
	// ChunkSize is the PUT size in bytes. Defaults to DefaultChunkSize.
	ChunkSize int64 `yaml:"chunk_size" mapstructure:"chunk_size"`
	// IntakeURL is the provider upload host used in direct mode.
	IntakeURL string `yaml:"intake_url" mapstructure:"intake_url"`
	// RelayURL is the relay base URL used in relay mode.
	RelayURL string `yaml:"relay_url" mapstructure:"relay_url"`
	// ChunkTimeout bounds a single PUT.
	ChunkTimeout time.Duration `yaml:"chunk_timeout" mapstructure:"chunk_timeout"`
	// InitiateRetry retries the initiation handshake. Chunks are never retried.
	InitiateRetry *resilience.RetryConfig `yaml:"initiate_retry" mapstructure:"initiate_retry"`
	// TLS applies to both the handshake and chunk clients.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDirect
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.IntakeURL == "" {
		c.IntakeURL = DefaultIntakeURL
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = 5 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDirect:
	case ModeRelay:
		if c.RelayURL == "" {
			return fmt.Errorf("upload: relay_url is required in relay mode")
		}
	default:
		return fmt.Errorf("upload: unknown mode %q (want %s or %s)", c.Mode, ModeDirect, ModeRelay)
	}
	return nil
}

// Transport performs chunked resumable uploads.
type Transport struct {
	cfg       Config
	client    *httpclient.Client
	initiator Initiator
	metrics   *observability.ScribeMetrics
	log       *logger.Logger
	httpBase  *httpclient.Config
}

// Option customizes a Transport.
type Option func(*Transport)

// WithInitiator replaces the initiator derived from Config.Mode.
func WithInitiator(i Initiator) Option {
	return func(t *Transport) { t.initiator = i }
}

// WithMetrics records uploaded chunks on m.
func WithMetrics(m *observability.ScribeMetrics) Option {
	return func(t *Transport) { t.metrics = m }
}

// WithHTTPConfig overrides the HTTP client settings, for example a custom
// RoundTripper. Timeout and Retry are still taken from Config.
func WithHTTPConfig(hc httpclient.Config) Option {
	return func(t *Transport) { t.httpBase = &hc }
}

// New builds a Transport from cfg.
func New(cfg Config, log *logger.Logger, opts ...Option) (*Transport, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Transport{cfg: cfg, log: logger.OrGlobal(log).WithComponent("upload")}
	for _, opt := range opts {
		opt(t)
	}

	base := httpclient.Config{}
	if t.httpBase != nil {
		base = *t.httpBase
	}
	if base.TLS == nil {
		base.TLS = cfg.TLS
	}

	chunkCfg := base
	chunkCfg.Timeout = cfg.ChunkTimeout
	chunkCfg.Retry = nil
	client, err := httpclient.New(chunkCfg)
	if err != nil {
		return nil, err
	}
	t.client = client

	if t.initiator == nil {
		initCfg := base
		initCfg.Retry = cfg.InitiateRetry
		initClient, err := httpclient.New(initCfg)
		if err != nil {
			return nil, err
		}
		if cfg.Mode == ModeRelay {
			t.initiator = NewRelayInitiator(initClient, cfg.RelayURL)
		} else {
			t.initiator = NewDirectInitiator(initClient, cfg.IntakeURL)
		}
	}
	return t, nil
}

type finalizeResponse struct {
	File struct {
		URI string `json:"uri"`
	} `json:"file"`
}

// Upload sends src and returns the provider file URI. onProgress receives
// the floor percentage after every accepted chunk, never 100. Any rejected
// chunk is a terminal UPLOAD_FAILED error. Cancellation returns
// context.Canceled.
func (t *Transport) Upload(ctx context.Context, src Source, credential string, onProgress func(int)) (uri string, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanUpload)
	defer func() {
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		span.End()
	}()

	total := src.Size()
	if total <= 0 {
		return "", errors.InvalidInput("file", "cannot upload an empty file")
	}
	observability.SetSpanAttribute(ctx, observability.AttrBytes, total)

	uploadURL, err := t.initiator.Initiate(ctx, MetaOf(src), credential)
	if err != nil {
		return "", err
	}
	t.log.Debug("upload initiated", logger.Fields("name", src.Name(), "size", total, "mode", t.cfg.Mode))

	for _, c := range Plan(total, t.cfg.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := src.ReadChunk(ctx, c.Start, c.Len())
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", errors.UploadFailed(c.Start, 0, err)
		}

		body, err := t.putChunk(ctx, uploadURL, c, total, data)
		if err != nil {
			return "", err
		}
		t.metrics.ChunkUploaded(ctx, len(data))
		if onProgress != nil {
			onProgress(Progress(c.End, total))
		}

		if c.Final {
			var fin finalizeResponse
			if err := json.Unmarshal(body, &fin); err != nil || fin.File.URI == "" {
				return "", errors.UploadFailed(c.Start, 0, fmt.Errorf("finalize response carried no file uri"))
			}
			t.log.Info("upload complete", logger.Fields("name", src.Name(), "size", total))
			return fin.File.URI, nil
		}
	}
	return "", errors.UploadFailed(total, 0, fmt.Errorf("upload ended without finalize"))
}

func (t *Transport) putChunk(ctx context.Context, uploadURL string, c Chunk, total int64, data []byte) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanUploadChunk)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrOffset, c.Start)
	observability.SetSpanAttribute(ctx, observability.AttrBytes, len(data))

	command := "upload"
	if c.Final {
		command = "upload, finalize"
	}
	headers := map[string]string{
		"Content-Range": fmt.Sprintf("bytes %d-%d/%d", c.Start, c.End-1, total),
		"Content-Type":  "application/octet-stream",
		HeaderCommand:   command,
		HeaderOffset:    strconv.FormatInt(c.Start, 10),
	}
	target := uploadURL
	if t.cfg.Mode == ModeRelay {
		headers[HeaderRelayTarget] = uploadURL
		target = strings.TrimRight(t.cfg.RelayURL, "/") + "/proxy-upload"
	}

	resp, err := t.client.Do(ctx, httpclient.Request{
		Method:  "PUT",
		Path:    target,
		Headers: headers,
		Body:    data,
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		if ctx.Err() == context.Canceled {
			return nil, context.Canceled
		}
		t.log.Warn("chunk rejected", logger.Fields(logger.FieldOffset, c.Start, "status", httpclient.StatusOf(err), logger.FieldError, err.Error()))
		return nil, errors.UploadFailed(c.Start, httpclient.StatusOf(err), err)
	}
	return resp.Body, nil
}
