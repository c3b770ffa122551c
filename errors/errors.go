package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the error every package boundary speaks. The code decides
// the HTTP status and whether a retry can help.
type AppError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Cause   error
}

// New returns an AppError with code and a user-facing message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus is the status derived from the code.
func (e *AppError) HTTPStatus() int { return e.Code.HTTPStatus() }

// Retryable reports whether the code marks the failure as transient.
func (e *AppError) Retryable() bool { return e.Code.Retryable() }

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail records one key of structured context.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether err's chain holds an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap returns the AppError already in err's chain, or an internal error
// caused by err.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// ConnectionFailed reports that service could not be reached.
func ConnectionFailed(service string) *AppError {
	return New(ErrCodeConnectionFailed, fmt.Sprintf("Unable to connect to %s.", service)).
		WithDetail("service", service)
}

// RateLimited rejects a caller over its request budget.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

// ExternalServiceError wraps a failure reported by a remote dependency.
func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService, fmt.Sprintf("The %s service encountered an error. Please try again.", service)).
		WithDetail("service", service).
		WithCause(cause)
}

// NotFound reports a missing resource. An empty id is left out of the details.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource)).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

func Conflict(reason string) *AppError { return New(ErrCodeConflict, reason) }

// InvalidInput rejects a bad value. field may be empty.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "Invalid input: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation carries an already formatted validation message.
func Validation(message string) *AppError { return New(ErrCodeInvalidInput, message) }

func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, "Missing required field: "+field).WithDetail("field", field)
}

func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason)
}

// ForbiddenTarget rejects a relay request whose destination is not allow-listed.
func ForbiddenTarget(target string) *AppError {
	return New(ErrCodeForbiddenTarget, "Upload target is not an allowed provider endpoint.").
		WithDetail("target", target)
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}
