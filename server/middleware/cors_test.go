package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/interviewscribe/server/middleware"
)

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Gemini-Key"},
		MaxAge:         600,
	}
	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantHeader map[string]string
	}{
		{
			name: "allowed", method: http.MethodPost, origin: "http://localhost:3000", wantStatus: http.StatusOK,
			wantHeader: map[string]string{
				"Access-Control-Allow-Origin":  "http://localhost:3000",
				"Access-Control-Allow-Methods": "POST, PUT, OPTIONS",
				"Access-Control-Allow-Headers": "Content-Type, X-Gemini-Key",
				"Access-Control-Max-Age":       "600",
				"Vary":                         "Origin",
			},
		},
		{
			name: "disallowed", method: http.MethodPost, origin: "https://evil.example", wantStatus: http.StatusOK,
			wantHeader: map[string]string{"Access-Control-Allow-Origin": "", "Access-Control-Allow-Methods": ""},
		},
		{
			name: "preflight", method: http.MethodOptions, origin: "http://localhost:3000", preflight: true,
			wantStatus: http.StatusNoContent,
			wantHeader: map[string]string{"Access-Control-Allow-Origin": "http://localhost:3000"},
		},
		{
			name: "plain options", method: http.MethodOptions, origin: "http://localhost:3000", wantStatus: http.StatusOK,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tc.method, "/api/upload/initiate", http.NoBody)
			req.Header.Set("Origin", tc.origin)
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			rr := serve(middleware.CORS(cfg), h, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if called == tc.preflight {
				t.Errorf("handler called = %v on preflight = %v", called, tc.preflight)
			}
			for k, want := range tc.wantHeader {
				if got := rr.Header().Get(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
		})
	}
}

func TestCORS_Wildcard(t *testing.T) {
	mw := middleware.CORS(&middleware.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true})
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	rr := serve(mw, okHandler, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("allow origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow credentials = %q", got)
	}
}
