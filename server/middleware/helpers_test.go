package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/server/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

// serve runs one request through mw wrapped around h.
func serve(mw middleware.Middleware, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mw(h).ServeHTTP(rr, req)
	return rr
}

// captureLog returns a debug-level JSON logger writing into the buffer.
func captureLog() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithWriter(&buf, "debug", "relay"), &buf
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorBody {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("not an error body: %v (%s)", err, rr.Body.String())
	}
	return resp.Error
}
