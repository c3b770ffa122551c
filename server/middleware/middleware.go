package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/interviewscribe/errors"
)

// Middleware wraps an http.Handler. Server-level middleware sees every
// request, including routes mounted outside gin.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first in the list is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts a Middleware for a single gin route or group. When the
// middleware answers the request itself the remaining gin handlers are
// skipped.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// WriteError writes appErr as a JSON error body with its HTTP status.
func WriteError(w http.ResponseWriter, appErr *errors.AppError) {
	errors.WriteJSON(w, appErr)
}
