package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/interviewscribe/logger"
)

// RequestLogger logs method, path, status and duration of each request.
// Headers, query strings and bodies are never logged: they carry API keys
// and upload URLs. Health probes are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	log = logger.OrGlobal(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)

			status := rec.Status()
			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, status,
				logger.FieldDuration, time.Since(start).Milliseconds(),
				"bytes", rec.bytes,
			)
			l := log.WithContext(r.Context())
			switch {
			case status >= 500:
				l.Error("Request completed", fields)
			case status >= 400:
				l.Warn("Request completed", fields)
			default:
				l.Debug("Request completed", fields)
			}
		})
	}
}
