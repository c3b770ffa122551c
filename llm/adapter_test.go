package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/interviewscribe/httpclient"
)

type mockDialect struct {
	probePath string
	encodeErr error
	requests  chan CompletionRequest
}

func (d *mockDialect) Name() string { return "mock" }

func (d *mockDialect) StreamPath(model string) string { return "/models/" + model + "/stream" }

func (d *mockDialect) ProbePath() string { return d.probePath }

func (d *mockDialect) EncodeRequest(req CompletionRequest) (any, error) {
	if d.encodeErr != nil {
		return nil, d.encodeErr
	}
	return map[string]any{
		"messages":    req.Messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}, nil
}

func (d *mockDialect) DecodeEvent(data []byte) (Delta, error) {
	var ev struct {
		Text   string `json:"text"`
		Finish string `json:"finish"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return Delta{}, err
	}
	return Delta{Text: ev.Text, FinishReason: ev.Finish}, nil
}

func testConfig(url string) Config {
	return Config{Model: "m1", Config: httpclient.Config{BaseURL: url}}
}

// sseServer writes each payload as one event.
func sseServer(t *testing.T, contentType string, payloads ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/m1/stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", contentType)
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func collect(ch <-chan StreamChunk) (text string, last StreamChunk, err error) {
	var b strings.Builder
	for c := range ch {
		if c.Err != nil {
			return b.String(), c, c.Err
		}
		b.WriteString(c.Content)
		last = c
	}
	return b.String(), last, nil
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Dialect: "nope"}); err == nil {
		t.Error("unknown dialect accepted")
	}
	if _, err := NewWithDialect(nil, Config{}); !errors.Is(err, ErrNoDialect) {
		t.Errorf("err = %v, want ErrNoDialect", err)
	}
	a, err := NewWithDialect(&mockDialect{}, testConfig("http://unused"))
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "mock-llm" || a.Dialect().Name() != "mock" {
		t.Errorf("name = %q dialect = %q", a.Name(), a.Dialect().Name())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("missing dialect accepted")
	}
	cfg = Config{Dialect: "gemini"}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if cfg.Timeout != defaultTimeout || cfg.Name != "gemini-llm" || cfg.UserAgent == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestAdapter_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/probe" {
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/probe", false},
		{"/elsewhere", true},
		{"", false},
	}
	for _, tc := range tests {
		a, _ := NewWithDialect(&mockDialect{probePath: tc.path}, testConfig(srv.URL))
		err := a.Probe(ctx)
		if (err != nil) != tc.wantErr {
			t.Errorf("Probe(%q) = %v", tc.path, err)
		}
		if tc.wantErr && !httpclient.IsAuth(err) {
			t.Errorf("Probe(%q) error kind = %s", tc.path, httpclient.KindOf(err))
		}
	}
}

func TestAdapter_Stream(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		payloads    []string
		wantText    string
		wantFinish  string
	}{
		{
			name:        "stops at finish reason",
			contentType: "text/event-stream",
			payloads:    []string{`{"text":"Hel"}`, `{"text":"lo"}`, `{"finish":"STOP"}`, `{"text":"ignored"}`},
			wantText:    "Hello",
			wantFinish:  "STOP",
		},
		{
			name:        "ends at EOF without finish",
			contentType: "text/event-stream",
			payloads:    []string{`{"text":"a"}`, `{"text":"b"}`},
			wantText:    "ab",
		},
		{
			name:        "event stream without content type",
			contentType: "application/octet-stream",
			payloads:    []string{`{"text":"x","finish":"MAX_TOKENS"}`},
			wantText:    "x",
			wantFinish:  "MAX_TOKENS",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := sseServer(t, tc.contentType, tc.payloads...)
			a, _ := NewWithDialect(&mockDialect{}, testConfig(srv.URL))
			ch, err := a.Stream(context.Background(), CompletionRequest{})
			if err != nil {
				t.Fatal(err)
			}
			text, last, err := collect(ch)
			if err != nil {
				t.Fatal(err)
			}
			if text != tc.wantText || last.FinishReason != tc.wantFinish || last.Done != (tc.wantFinish != "") {
				t.Errorf("got %q last=%+v", text, last)
			}
		})
	}
}

func TestAdapter_Stream_AppliesDefaults(t *testing.T) {
	zero, warm := 0.0, 0.9
	tests := []struct {
		name string
		temp *float64
		want float64
	}{
		{"unset takes the default", nil, 0.3},
		{"explicit zero is kept", &zero, 0},
		{"explicit value is kept", &warm, 0.9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body["max_tokens"] != float64(512) || body["temperature"] != tc.want {
					t.Errorf("body = %v, want max_tokens 512 and temperature %v", body, tc.want)
				}
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = io.WriteString(w, "data: {\"finish\":\"STOP\"}\n\n")
			}))
			defer srv.Close()

			def := 0.3
			cfg := testConfig(srv.URL)
			cfg.MaxTokens, cfg.Temperature = 512, &def
			a, _ := NewWithDialect(&mockDialect{}, cfg)
			ch, err := a.Stream(context.Background(), CompletionRequest{
				Messages:    []Message{{Role: "user", Content: "x"}},
				Temperature: tc.temp,
			})
			if err != nil {
				t.Fatal(err)
			}
			if _, _, err := collect(ch); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestAdapter_Stream_Errors(t *testing.T) {
	a, _ := NewWithDialect(&mockDialect{encodeErr: errors.New("bad")}, testConfig("http://unused"))
	if _, err := a.Stream(context.Background(), CompletionRequest{}); err == nil {
		t.Error("encode error not returned")
	}

	srv := sseServer(t, "text/event-stream", `{"text":"a"}`, `not-json`)
	a, _ = NewWithDialect(&mockDialect{}, testConfig(srv.URL))
	ch, _ := a.Stream(context.Background(), CompletionRequest{})
	if text, _, err := collect(ch); err == nil || text != "a" {
		t.Errorf("got %q, %v; want partial text and a decode error", text, err)
	}
}

func TestAdapter_Stream_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"text\":\"a\"}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	a, _ := NewWithDialect(&mockDialect{}, testConfig(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := a.Stream(ctx, CompletionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if first := <-ch; first.Content != "a" {
		t.Fatalf("first chunk = %+v", first)
	}
	cancel()
	for c := range ch {
		if c.Err != nil && !errors.Is(c.Err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", c.Err)
		}
	}
}

func TestRegistry(t *testing.T) {
	Register(&mockDialect{})
	d, err := Lookup("mock")
	if err != nil || d.Name() != "mock" {
		t.Fatalf("Lookup = %v, %v", d, err)
	}
	if !slices.Contains(Registered(), "mock") {
		t.Errorf("Registered() = %v", Registered())
	}
	if !slices.IsSorted(Registered()) {
		t.Error("Registered() not sorted")
	}
}
