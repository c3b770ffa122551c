package relay

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/interviewscribe/credential"
	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/httpclient"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/server"
	"github.com/kbukum/interviewscribe/server/middleware"
	"github.com/kbukum/interviewscribe/upload"
	"github.com/kbukum/interviewscribe/validation"
)

// Request headers copied onto the forwarded chunk. Content-Length travels
// as the request length.
var forwardedHeaders = []string{
	"Content-Type",
	"Content-Range",
	upload.HeaderCommand,
	upload.HeaderOffset,
}

// Upstream response headers returned to the caller besides the body.
var returnedHeaders = []string{
	"X-Goog-Upload-Status",
	"X-Goog-Upload-Size-Received",
}

// Handler serves the relay routes.
type Handler struct {
	cfg        Config
	initiator  upload.Initiator
	client     *httpclient.Client
	fallback   credential.Provider
	httpBase   *httpclient.Config
	initLimit  *middleware.RateLimiter
	proxyLimit *middleware.RateLimiter
	log        *logger.Logger
}

// Option customizes a Handler.
type Option func(*Handler)

// WithInitiator replaces the provider handshake.
func WithInitiator(i upload.Initiator) Option {
	return func(h *Handler) { h.initiator = i }
}

// WithFallbackCredential supplies a server-side key used when a caller
// sends no X-Gemini-Key.
func WithFallbackCredential(p credential.Provider) Option {
	return func(h *Handler) { h.fallback = p }
}

// WithHTTPConfig overrides the outbound HTTP settings, for example the
// transport.
func WithHTTPConfig(hc httpclient.Config) Option {
	return func(h *Handler) { h.httpBase = &hc }
}

// New creates a relay Handler.
func New(cfg Config, log *logger.Logger, opts ...Option) (*Handler, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Handler{
		cfg:        cfg,
		initLimit:  middleware.NewRateLimiter(cfg.InitiateLimit),
		proxyLimit: middleware.NewRateLimiter(cfg.ProxyLimit),
		log:        logger.OrGlobal(log).WithComponent("relay"),
	}
	for _, opt := range opts {
		opt(h)
	}

	base := httpclient.Config{}
	if h.httpBase != nil {
		base = *h.httpBase
	}
	if base.TLS == nil {
		base.TLS = cfg.UpstreamTLS
	}
	client, err := httpclient.New(base)
	if err != nil {
		return nil, err
	}
	h.client = client

	if h.initiator == nil {
		initCfg := base
		initCfg.Timeout = cfg.InitiateTimeout
		initClient, err := httpclient.New(initCfg)
		if err != nil {
			return nil, err
		}
		h.initiator = upload.NewDirectInitiator(initClient, cfg.IntakeURL)
	}
	return h, nil
}

// Register mounts the relay routes with their rate limits. The legacy
// initiation path shares the initiation limiter.
func (h *Handler) Register(r gin.IRoutes) {
	initLimit := middleware.GinWrap(h.initLimit.Middleware())
	r.POST("/api/upload/initiate", initLimit, h.initiate)
	r.POST("/api/gemini-upload", initLimit, h.initiate)
	r.PUT("/proxy-upload", middleware.GinWrap(h.proxyLimit.Middleware()), h.proxy)
}

func (h *Handler) initiate(c *gin.Context) {
	ctx := c.Request.Context()

	var meta upload.FileMeta
	if err := json.NewDecoder(c.Request.Body).Decode(&meta); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", "expected a JSON object with name, size and mimeType"))
		return
	}
	if err := validation.Validate(meta); err != nil {
		server.RespondWithError(c, err)
		return
	}

	key, err := h.apiKey(ctx, c.GetHeader(upload.HeaderRelayKey))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	uploadURL, err := h.initiator.Initiate(ctx, meta, key)
	if err != nil {
		if !stderrors.Is(err, context.Canceled) {
			h.log.WithContext(ctx).Warn("Upload initiation failed", logger.Fields(
				logger.FieldError, errors.Wrap(err).Message,
				"size", meta.Size,
			))
		}
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL})
}

// apiKey prefers the caller's key and falls back to the server-side one.
func (h *Handler) apiKey(ctx context.Context, header string) (string, error) {
	if key := strings.TrimSpace(header); key != "" {
		return key, nil
	}
	if h.fallback != nil {
		key, err := h.fallback.Credential(ctx)
		if err != nil {
			return "", errors.MissingCredential().WithCause(err)
		}
		if key != "" {
			return key, nil
		}
	}
	return "", errors.MissingCredential()
}

func (h *Handler) proxy(c *gin.Context) {
	ctx := c.Request.Context()

	target := c.GetHeader(upload.HeaderRelayTarget)
	if target == "" {
		target = c.GetHeader(upload.HeaderRelayTargetLegacy)
	}
	if err := h.cfg.Targets.Validate(target); err != nil {
		server.RespondWithError(c, err)
		return
	}

	headers := make(map[string]string, len(forwardedHeaders))
	for _, name := range forwardedHeaders {
		if v := c.GetHeader(name); v != "" {
			headers[name] = v
		}
	}
	req := httpclient.Request{Method: http.MethodPut, Path: target, Headers: headers}
	if c.Request.ContentLength != 0 {
		req.Body = c.Request.Body
		req.ContentLength = c.Request.ContentLength
	}

	resp, err := h.client.Forward(ctx, req)
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			server.RespondWithError(c, err)
			return
		}
		h.log.WithContext(ctx).Warn("Chunk forward failed", logger.Fields(
			"status", httpclient.StatusOf(err),
			logger.FieldOffset, c.GetHeader(upload.HeaderOffset),
		))
		server.RespondWithError(c, errors.ExternalServiceError("upload", err))
		return
	}
	defer resp.Body.Close()

	extra := make(map[string]string, len(returnedHeaders))
	for _, name := range returnedHeaders {
		if v := resp.Header.Get(name); v != "" {
			extra[name] = v
		}
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, extra)
}
