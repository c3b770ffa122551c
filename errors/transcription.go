package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// MissingCredential reports that no provider API key was configured.
func MissingCredential() *AppError {
	return New(ErrCodeMissingCredential,
		"No API key configured. Set one with `scribe key set` or the GEMINI_API_KEY variable.")
}

// UploadFailed reports a non-recoverable upload failure at offset. status
// is the provider's HTTP status, or 0 for transport errors.
func UploadFailed(offset int64, status int, cause error) *AppError {
	msg := fmt.Sprintf("Upload failed at byte %d.", offset)
	if status > 0 {
		msg = fmt.Sprintf("Upload failed at byte %d with status %d.", offset, status)
	}
	return New(ErrCodeUploadFailed, msg).
		WithDetail("offset", offset).
		WithDetail("status", status).
		WithCause(cause)
}

// GenerationStalled reports that the model stopped producing new records
// before the end of the recording.
func GenerationStalled(cursor float64, stalls int) *AppError {
	return New(ErrCodeGenerationStalled,
		fmt.Sprintf("Transcription stalled near %.0fs after %d empty rounds.", cursor, stalls)).
		WithDetail("cursor", cursor).
		WithDetail("stalls", stalls)
}

func GenerationFailed(attempts int, cause error) *AppError {
	return New(ErrCodeGenerationFailed, fmt.Sprintf("Transcription failed after %d attempts.", attempts)).
		WithDetail("attempts", attempts).
		WithCause(cause)
}

// RunActive rejects a start while another run owns the orchestrator.
func RunActive(state string) *AppError {
	return New(ErrCodeRunActive, "A transcription is already in progress.").WithDetail("state", state)
}

// Cancelled marks a user stop. It unwraps to context.Canceled.
func Cancelled() *AppError {
	return New(ErrCodeCancelled, "Transcription cancelled.").WithCause(context.Canceled)
}

// IsCancelled reports whether err represents a user cancellation.
func IsCancelled(err error) bool {
	return err != nil && (stderrors.Is(err, context.Canceled) || HasCode(err, ErrCodeCancelled))
}
