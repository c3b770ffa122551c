package errors

import "net/http"

// ErrorCode is the machine-readable half of an AppError.
type ErrorCode string

const (
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"

	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbiddenTarget ErrorCode = "FORBIDDEN_TARGET"

	// ErrCodeMissingCredential means no provider API key could be resolved.
	ErrCodeMissingCredential ErrorCode = "MISSING_CREDENTIAL"
	// ErrCodeUploadFailed is a terminal chunk or initiation failure.
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
	// ErrCodeGenerationStalled means consecutive empty rounds exceeded the ceiling.
	ErrCodeGenerationStalled ErrorCode = "GENERATION_STALLED"
	// ErrCodeGenerationFailed means the stream kept failing past the ceiling.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodeCancelled marks a user-requested stop. It is not shown as an error.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeRunActive rejects a second start while a run is in flight.
	ErrCodeRunActive ErrorCode = "RUN_ACTIVE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StatusClientClosed is the non-standard status reported for cancelled runs.
const StatusClientClosed = 499

type codeInfo struct {
	status    int
	retryable bool
}

var codes = map[ErrorCode]codeInfo{
	ErrCodeConnectionFailed:  {http.StatusServiceUnavailable, true},
	ErrCodeRateLimited:       {http.StatusTooManyRequests, true},
	ErrCodeExternalService:   {http.StatusBadGateway, true},
	ErrCodeNotFound:          {http.StatusNotFound, false},
	ErrCodeConflict:          {http.StatusConflict, false},
	ErrCodeInvalidInput:      {http.StatusBadRequest, false},
	ErrCodeMissingField:      {http.StatusBadRequest, false},
	ErrCodeUnauthorized:      {http.StatusUnauthorized, false},
	ErrCodeForbiddenTarget:   {http.StatusBadRequest, false},
	ErrCodeMissingCredential: {http.StatusUnauthorized, false},
	ErrCodeUploadFailed:      {http.StatusBadGateway, false},
	ErrCodeGenerationStalled: {http.StatusGatewayTimeout, false},
	ErrCodeGenerationFailed:  {http.StatusBadGateway, false},
	ErrCodeCancelled:         {StatusClientClosed, false},
	ErrCodeRunActive:         {http.StatusConflict, false},
	ErrCodeInternal:          {http.StatusInternalServerError, false},
}

// HTTPStatus is the status the relay answers with for code. Unknown codes
// map to 500.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a failure with this code may succeed on retry.
func (c ErrorCode) Retryable() bool {
	return codes[c].retryable
}
