package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig is the cross-origin allow-list.
type CORSConfig struct {
	// AllowedOrigins may contain "*" to allow any origin.
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	ExposedHeaders   []string `yaml:"exposed_headers" mapstructure:"exposed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	// MaxAge is the preflight cache lifetime in seconds. Zero omits it.
	MaxAge int `yaml:"max_age" mapstructure:"max_age"`
}

// corsPolicy is a CORSConfig resolved into fixed response headers.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	fixed     http.Header
}

func newCORSPolicy(cfg *CORSConfig) *corsPolicy {
	p := &corsPolicy{origins: make(map[string]struct{}, len(cfg.AllowedOrigins)), fixed: http.Header{}}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
		}
		p.origins[o] = struct{}{}
	}
	lists := map[string][]string{
		"Access-Control-Allow-Methods":  cfg.AllowedMethods,
		"Access-Control-Allow-Headers":  cfg.AllowedHeaders,
		"Access-Control-Expose-Headers": cfg.ExposedHeaders,
	}
	for k, v := range lists {
		if len(v) > 0 {
			p.fixed.Set(k, strings.Join(v, ", "))
		}
	}
	if cfg.AllowCredentials {
		p.fixed.Set("Access-Control-Allow-Credentials", "true")
	}
	if cfg.MaxAge > 0 {
		p.fixed.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := p.origins[origin]
	return ok || p.anyOrigin
}

// CORS echoes allowed origins back with the configured headers and answers
// preflight requests with 204. Disallowed origins get no CORS headers.
func CORS(cfg *CORSConfig) Middleware {
	policy := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); policy.allows(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				for k, v := range policy.fixed {
					h[k] = v
				}
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
