package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON envelope the relay writes for a failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// Response builds the JSON envelope for e. The cause is never exposed.
func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable(),
		Details:   e.Details,
	}}
}

// WriteJSON writes err as an ErrorResponse. Errors that are not AppErrors
// become INTERNAL_ERROR.
func WriteJSON(w http.ResponseWriter, err error) {
	appErr := Wrap(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(appErr.Response())
}
