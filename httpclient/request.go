package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/interviewscribe/httpclient/sse"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is joined to the client's BaseURL unless it is an absolute URL.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body is an io.Reader, []byte, string or a value encoded as JSON.
	Body any
	// ContentLength is sent for io.Reader bodies when positive.
	ContentLength int64
	// Auth replaces the client's Auth for this request.
	Auth Auth
}

func (r Request) target(base string) string {
	if base == "" || strings.HasPrefix(r.Path, "http://") || strings.HasPrefix(r.Path, "https://") {
		return r.Path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(r.Path, "/")
}

// payload returns the body reader and the Content-Type it implies.
func (r Request) payload() (io.Reader, string, error) {
	switch v := r.Body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// build resolves r against cfg. Header precedence, lowest first: user
// agent, cfg.Headers, r.Headers, implied Content-Type, auth.
func (r Request) build(ctx context.Context, cfg *Config) (*http.Request, error) {
	body, contentType, err := r.payload()
	if err != nil {
		return nil, invalidRequest("encode body: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.target(cfg.BaseURL), body)
	if err != nil {
		return nil, invalidRequest("create request: %v", err)
	}
	if r.ContentLength > 0 {
		req.ContentLength = r.ContentLength
	}
	if len(r.Query) > 0 {
		q := req.URL.Query()
		for k, v := range r.Query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	h := req.Header
	if cfg.UserAgent != "" {
		h.Set("User-Agent", cfg.UserAgent)
	}
	for _, set := range []map[string]string{cfg.Headers, r.Headers} {
		for k, v := range set {
			h.Set(k, v)
		}
	}
	if contentType != "" && h.Get("Content-Type") == "" {
		h.Set("Content-Type", contentType)
	}

	auth := cfg.Auth
	if r.Auth != nil {
		auth = r.Auth
	}
	if auth != nil {
		auth.Apply(req)
	}
	return req, nil
}

// Response is a buffered HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// StreamResponse is an open HTTP response. Exactly one of SSE and Body
// is set.
type StreamResponse struct {
	StatusCode int
	Headers    http.Header
	SSE        *sse.Reader
	Body       io.ReadCloser
}

func (r *StreamResponse) Close() error {
	switch {
	case r.SSE != nil:
		return r.SSE.Close()
	case r.Body != nil:
		return r.Body.Close()
	}
	return nil
}

