package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
const DefaultMaxBodySize int64 = 64 << 20

// BodySizeLimit caps request bodies at maxSize ("64MB", "512KB", "1048576").
// An unparsable size falls back to DefaultMaxBodySize.
func BodySizeLimit(maxSize string) Middleware {
	limit := ParseSize(maxSize, DefaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

var sizeUnits = []struct {
	suffix string
	factor int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// ParseSize converts a size with an optional binary unit suffix to bytes.
// It returns def for empty, malformed or non-positive input.
func ParseSize(s string, def int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	factor := int64(1)
	for _, u := range sizeUnits {
		if strings.HasSuffix(s, u.suffix) {
			factor = u.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n * factor
}
