package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/interviewscribe/credential"
	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/httpclient"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/security"
	"github.com/kbukum/interviewscribe/server/middleware"
	"github.com/kbukum/interviewscribe/upload"
)

// provider is a TLS stand-in for the resumable upload API.
type provider struct {
	srv *httptest.Server

	mu         sync.Mutex
	initKey    string
	initHeader http.Header
	noURL      bool
	puts       []http.Header
	lengths    []int64
	received   bytes.Buffer
	putStatus  int
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	p := &provider{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.initKey = r.Header.Get(upload.HeaderAPIKey)
		p.initHeader = r.Header.Clone()
		noURL := p.noURL
		p.mu.Unlock()
		if !noURL {
			w.Header().Set(upload.HeaderURL, p.srv.URL+"/upload/v1beta/files?upload_id=u1&upload_protocol=resumable")
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("PUT /upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		p.mu.Lock()
		defer p.mu.Unlock()
		p.puts = append(p.puts, r.Header.Clone())
		p.lengths = append(p.lengths, r.ContentLength)
		if p.putStatus != 0 {
			http.Error(w, "bad range", p.putStatus)
			return
		}
		p.received.Write(body)
		if strings.Contains(r.Header.Get(upload.HeaderCommand), "finalize") {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Goog-Upload-Status", "final")
			_, _ = io.WriteString(w, `{"file":{"uri":"https://files.example/f1"}}`)
			return
		}
		w.Header().Set("X-Goog-Upload-Status", "active")
		w.WriteHeader(http.StatusOK)
	})
	p.srv = httptest.NewTLSServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *provider) host() string {
	u, _ := url.Parse(p.srv.URL)
	return u.Hostname()
}

func (p *provider) sessionURL() string {
	return p.srv.URL + "/upload/v1beta/files?upload_id=u1&upload_protocol=resumable"
}

type relayOpts struct {
	cfg  func(*Config)
	opts []Option
}

func newRelay(t *testing.T, p *provider, ro relayOpts) *httptest.Server {
	t.Helper()
	cfg := Config{
		IntakeURL: p.srv.URL,
		Targets:   upload.TargetPolicy{Hosts: []string{p.host()}, PathPrefix: "/upload/"},
	}
	cfg.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	if ro.cfg != nil {
		ro.cfg(&cfg)
	}
	opts := append([]Option{WithHTTPConfig(httpclient.Config{Transport: p.srv.Client().Transport})}, ro.opts...)
	srv, err := NewServer(cfg, logger.Nop(), nil, opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postInitiate(t *testing.T, relayURL, key, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, relayURL+"/api/upload/initiate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(upload.HeaderRelayKey, key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func errorCode(t *testing.T, resp *http.Response) errors.ErrorCode {
	t.Helper()
	var body errors.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestInitiate_ReturnsUploadURL(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})

	resp := postInitiate(t, relay.URL, "AIza-key", `{"name":"interview.mp3","size":2048,"mimeType":"audio/mpeg"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		UploadURL string `json:"uploadUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.UploadURL != p.sessionURL() {
		t.Errorf("uploadUrl = %q", body.UploadURL)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initKey != "AIza-key" {
		t.Errorf("provider saw key %q", p.initKey)
	}
	h := p.initHeader
	if h.Get(upload.HeaderProtocol) != "resumable" || h.Get(upload.HeaderCommand) != "start" ||
		h.Get(upload.HeaderContentLength) != "2048" || h.Get(upload.HeaderContentType) != "audio/mpeg" {
		t.Errorf("initiate headers = %v", h)
	}
}

func TestInitiate_Rejections(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})

	tests := []struct {
		name   string
		key    string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"missing name", "k", `{"size":10,"mimeType":"audio/mpeg"}`, http.StatusBadRequest, errors.ErrCodeMissingField},
		{"missing size", "k", `{"name":"a.mp3","mimeType":"audio/mpeg"}`, http.StatusBadRequest, errors.ErrCodeMissingField},
		{"missing mime type", "k", `{"name":"a.mp3","size":10}`, http.StatusBadRequest, errors.ErrCodeMissingField},
		{"malformed body", "k", `{"name":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no key", "", `{"name":"a.mp3","size":10,"mimeType":"audio/mpeg"}`, http.StatusUnauthorized, errors.ErrCodeMissingCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postInitiate(t, relay.URL, tt.key, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if code := errorCode(t, resp); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestInitiate_FallbackCredential(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{opts: []Option{WithFallbackCredential(credential.Static("server-key"))}})

	resp := postInitiate(t, relay.URL, "", `{"name":"a.mp3","size":10,"mimeType":"audio/mpeg"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initKey != "server-key" {
		t.Errorf("provider saw key %q", p.initKey)
	}
}

func TestInitiate_ProviderReturnsNoURL(t *testing.T) {
	p := newProvider(t)
	p.noURL = true
	relay := newRelay(t, p, relayOpts{})

	resp := postInitiate(t, relay.URL, "k", `{"name":"a.mp3","size":10,"mimeType":"audio/mpeg"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != errors.ErrCodeUploadFailed {
		t.Errorf("code = %s", code)
	}
}

func TestInitiate_LegacyPath(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})

	req, _ := http.NewRequest(http.MethodPost, relay.URL+"/api/gemini-upload",
		strings.NewReader(`{"name":"a.mp3","size":10,"mimeType":"audio/mpeg"}`))
	req.Header.Set(upload.HeaderRelayKey, "k")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func putChunk(t *testing.T, relayURL string, headers map[string]string, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPut, relayURL+"/proxy-upload", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestProxy_ForwardsChunk(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})

	resp := putChunk(t, relay.URL, map[string]string{
		upload.HeaderRelayTarget: p.sessionURL(),
		"Content-Range":          "bytes 0-9/10",
		"Content-Type":           "application/octet-stream",
		upload.HeaderCommand:     "upload, finalize",
		upload.HeaderOffset:      "0",
		upload.HeaderRelayKey:    "must-not-forward",
	}, "0123456789")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if st := resp.Header.Get("X-Goog-Upload-Status"); st != "final" {
		t.Errorf("upload status header = %q", st)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"file":{"uri":"https://files.example/f1"}}` {
		t.Errorf("body = %s", body)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.received.String() != "0123456789" || p.lengths[0] != 10 {
		t.Errorf("upstream got %q (length %d)", p.received.String(), p.lengths[0])
	}
	h := p.puts[0]
	if h.Get("Content-Range") != "bytes 0-9/10" || h.Get(upload.HeaderCommand) != "upload, finalize" || h.Get(upload.HeaderOffset) != "0" {
		t.Errorf("forwarded headers = %v", h)
	}
	for _, name := range []string{upload.HeaderRelayKey, upload.HeaderRelayTarget} {
		if h.Get(name) != "" {
			t.Errorf("%s leaked upstream", name)
		}
	}
}

func TestProxy_LegacyTargetHeader(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})

	resp := putChunk(t, relay.URL, map[string]string{
		upload.HeaderRelayTargetLegacy: p.sessionURL(),
		upload.HeaderCommand:           "upload",
		upload.HeaderOffset:            "0",
	}, "abc")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestProxy_ForbiddenTargets(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})
	u, _ := url.Parse(p.srv.URL)

	tests := []struct {
		name   string
		target string
	}{
		{"missing", ""},
		{"plain http", "http://" + u.Host + "/upload/v1beta/files"},
		{"other host", "https://evil.example/upload/v1beta/files"},
		{"outside upload path", p.srv.URL + "/v1beta/models"},
		{"not a url", "::::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := putChunk(t, relay.URL, map[string]string{upload.HeaderRelayTarget: tt.target}, "x")
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if code := errorCode(t, resp); code != errors.ErrCodeForbiddenTarget {
				t.Errorf("code = %s", code)
			}
		})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.puts) != 0 {
		t.Errorf("forbidden targets reached upstream %d times", len(p.puts))
	}
}

func TestProxy_PassesUpstreamError(t *testing.T) {
	p := newProvider(t)
	p.putStatus = http.StatusBadRequest
	relay := newRelay(t, p, relayOpts{})

	resp := putChunk(t, relay.URL, map[string]string{upload.HeaderRelayTarget: p.sessionURL()}, "abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "bad range" {
		t.Errorf("body = %q", body)
	}
}

func TestRateLimits(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{cfg: func(c *Config) {
		c.InitiateLimit = middleware.RateLimitConfig{Limit: 2, Window: time.Minute}
		c.ProxyLimit = middleware.RateLimitConfig{Limit: 1, Window: time.Minute}
	}})

	body := `{"name":"a.mp3","size":10,"mimeType":"audio/mpeg"}`
	for i := range 2 {
		if resp := postInitiate(t, relay.URL, "k", body); resp.StatusCode != http.StatusOK {
			t.Fatalf("initiate %d status = %d", i, resp.StatusCode)
		}
	}
	resp := postInitiate(t, relay.URL, "k", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("third initiate status = %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != errors.ErrCodeRateLimited {
		t.Errorf("code = %s", code)
	}

	headers := map[string]string{upload.HeaderRelayTarget: p.sessionURL()}
	if resp := putChunk(t, relay.URL, headers, "a"); resp.StatusCode != http.StatusOK {
		t.Fatalf("first proxy status = %d", resp.StatusCode)
	}
	if resp := putChunk(t, relay.URL, headers, "b"); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second proxy status = %d", resp.StatusCode)
	}
}

func TestPreflight(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})

	req, _ := http.NewRequest(http.MethodOptions, relay.URL+"/proxy-upload", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Upload-Target-URL") {
		t.Errorf("allow headers = %q", got)
	}
}

func TestTransportThroughRelay(t *testing.T) {
	p := newProvider(t)
	relay := newRelay(t, p, relayOpts{})

	tr, err := upload.New(upload.Config{Mode: upload.ModeRelay, RelayURL: relay.URL, ChunkSize: 4}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("interview!")
	uri, err := tr.Upload(context.Background(), upload.NewBytesSource("talk.mp3", "audio/mpeg", data), "AIza-key", nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if uri != "https://files.example/f1" {
		t.Errorf("uri = %q", uri)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.received.String() != string(data) || len(p.puts) != 3 {
		t.Errorf("upstream got %q in %d PUTs", p.received.String(), len(p.puts))
	}
	if p.initKey != "AIza-key" {
		t.Errorf("provider saw key %q", p.initKey)
	}
}

func TestNew_RejectsHalfConfiguredUpstreamTLS(t *testing.T) {
	cfg := Config{UpstreamTLS: &security.TLSConfig{CertFile: "client.pem"}}
	if _, err := New(cfg, logger.Nop()); err == nil {
		t.Fatal("expected error for cert_file without key_file")
	}
}
