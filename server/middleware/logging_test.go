package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/server/middleware"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		handler http.HandlerFunc
		want    []string
		silent  bool
	}{
		{
			name:    "server error",
			path:    "/proxy-upload?upload_id=secret-id",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			want:    []string{`"method":"PUT"`, `"path":"/proxy-upload"`, `"status":502`, `"duration_ms":`, `"level":"error"`},
		},
		{
			name:    "client error",
			path:    "/api/upload/initiate",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			want:    []string{`"status":400`, `"level":"warn"`},
		},
		{
			name: "implicit ok",
			path: "/info",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "hello")
				w.WriteHeader(http.StatusTeapot)
			},
			want: []string{`"status":200`, `"bytes":5`, `"level":"debug"`},
		},
		{
			name:    "health skipped",
			path:    "/health",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
			silent:  true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, buf := captureLog()
			req := httptest.NewRequest(http.MethodPut, tc.path, strings.NewReader("audio-bytes"))
			req.Header.Set("X-Gemini-Key", "AIza-secret")
			serve(middleware.RequestLogger(log), tc.handler, req)

			out := buf.String()
			if tc.silent {
				if out != "" {
					t.Errorf("expected no log, got %s", out)
				}
				return
			}
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("log missing %s: %s", w, out)
				}
			}
			for _, leaked := range []string{"secret-id", "AIza-secret", "audio-bytes"} {
				if strings.Contains(out, leaked) {
					t.Errorf("log leaked %q", leaked)
				}
			}
		})
	}
}

type flushSpy struct {
	http.ResponseWriter
	flushed bool
}

func (f *flushSpy) Flush() { f.flushed = true }

func TestRequestLogger_DelegatesFlush(t *testing.T) {
	spy := &flushSpy{ResponseWriter: httptest.NewRecorder()}
	h := middleware.RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		http.NewResponseController(w).Flush()
	}))
	h.ServeHTTP(spy, httptest.NewRequest(http.MethodPut, "/proxy-upload", http.NoBody))

	if !spy.flushed {
		t.Error("Flush did not reach the underlying writer")
	}
}
