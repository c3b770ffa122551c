package httpclient

import "net/http"

// Auth adds credentials to an outgoing request.
type Auth interface {
	Apply(req *http.Request)
}

// AuthFunc adapts a function to Auth.
type AuthFunc func(req *http.Request)

func (f AuthFunc) Apply(req *http.Request) { f(req) }

type headerAuth struct {
	name, value string
}

func (h headerAuth) Apply(req *http.Request) { req.Header.Set(h.name, h.value) }

// String never includes the secret, so an Auth is safe to log.
func (h headerAuth) String() string { return h.name + ": [redacted]" }

// APIKeyAuthHeader sends key in the named header.
func APIKeyAuthHeader(key, header string) Auth {
	return headerAuth{name: header, value: key}
}

// BearerAuth sends "Authorization: Bearer <token>".
func BearerAuth(token string) Auth {
	return headerAuth{name: "Authorization", value: "Bearer " + token}
}
