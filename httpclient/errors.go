package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind says why a call failed.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindInvalid    Kind = "invalid_request"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindRateLimit  Kind = "rate_limit"
	KindRejected   Kind = "rejected"
	KindServer     Kind = "server"
	KindUnexpected Kind = "unexpected_status"
)

// Error is returned for transport failures and non-2xx responses.
type Error struct {
	Kind Kind
	// StatusCode is 0 when no response arrived.
	StatusCode int
	Message    string
	// Reason is the provider's machine-readable status, e.g. INVALID_ARGUMENT.
	Reason string
	// Body holds up to maxErrorBody bytes of the response.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("httpclient: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports failures a second attempt may fix.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindRateLimit, KindServer:
		return true
	}
	return false
}

func transportFailure(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// ClassifyStatusCode turns a non-2xx status into an *Error. It returns nil
// for 2xx. Google-style {"error":{"message","status"}} bodies supply the
// message and reason.
func ClassifyStatusCode(status int, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	e := &Error{StatusCode: status, Body: body, Kind: kindOf(status)}

	var payload struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message, e.Reason = payload.Error.Message, payload.Error.Status
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func kindOf(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindRejected
	default:
		return KindUnexpected
	}
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if e, ok := asError(err); ok {
		return e.StatusCode
	}
	return 0
}

// KindOf returns the Kind carried by err, or "".
func KindOf(err error) Kind {
	if e, ok := asError(err); ok {
		return e.Kind
	}
	return ""
}

func IsAuth(err error) bool      { return KindOf(err) == KindAuth }
func IsRateLimit(err error) bool { return KindOf(err) == KindRateLimit }

// IsRetryable is the RetryIf used by DefaultRetryConfig.
func IsRetryable(err error) bool {
	e, ok := asError(err)
	return ok && e.Retryable()
}
