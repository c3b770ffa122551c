package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	apperrors "github.com/kbukum/interviewscribe/errors"
)

// Exit codes.
const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitCancelled = 130
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		code := exitCode(err)
		if code != ExitCancelled {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(code)
	}
}

func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return ExitCancelled
	}
	if ae, ok := apperrors.AsAppError(err); ok && ae.Code == apperrors.ErrCodeCancelled {
		return ExitCancelled
	}
	return ExitError
}
