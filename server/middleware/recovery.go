package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/logger"
)

// Recovery turns a handler panic into a 500 response and logs the stack.
// http.ErrAbortHandler is re-raised so the server aborts the connection.
func Recovery(log *logger.Logger) Middleware {
	log = logger.OrGlobal(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprint(rec),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				))
				WriteError(w, errors.Internal(nil))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
