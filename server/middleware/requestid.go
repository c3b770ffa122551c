package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/interviewscribe/logger"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// RequestID keeps an incoming X-Request-Id or assigns a new one, echoes it
// on the response and stores it on the request context for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			ctx := logger.ContextWith(r.Context(), logger.FieldRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
