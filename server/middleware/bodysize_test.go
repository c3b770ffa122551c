package middleware_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/interviewscribe/server/middleware"
)

func TestBodySizeLimit(t *testing.T) {
	drain := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mw := middleware.BodySizeLimit("1KB")

	for size, want := range map[int]int{
		512:  http.StatusOK,
		1024: http.StatusOK,
		1025: http.StatusRequestEntityTooLarge,
	} {
		req := httptest.NewRequest(http.MethodPut, "/proxy-upload", bytes.NewReader(make([]byte, size)))
		if rr := serve(mw, drain, req); rr.Code != want {
			t.Errorf("%d bytes: status %d, want %d", size, rr.Code, want)
		}
	}

	// Unknown length still hits the reader limit.
	req := httptest.NewRequest(http.MethodPut, "/proxy-upload", io.NopCloser(bytes.NewReader(make([]byte, 2048))))
	req.ContentLength = -1
	if rr := serve(mw, drain, req); rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("chunked body: status %d", rr.Code)
	}
}

func TestParseSize(t *testing.T) {
	const def = 7
	tests := map[string]int64{
		"10MB":    10 << 20,
		"512KB":   512 << 10,
		"2GB":     2 << 30,
		"1024":    1024,
		"100B":    100,
		"  8 mb ": 8 << 20,
		"":        def,
		"lots":    def,
		"-5MB":    def,
		"0":       def,
	}
	for in, want := range tests {
		if got := middleware.ParseSize(in, def); got != want {
			t.Errorf("ParseSize(%q) = %d, want %d", in, got, want)
		}
	}
}
