package server

import (
	"context"
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/interviewscribe/errors"
)

// RespondWithError aborts with err as a JSON error body. An
// *errors.AppError keeps its status and code, a bare context.Canceled
// becomes CANCELLED and anything else a generic 500.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.Wrap(err)
	if !errors.IsAppError(err) && stderrors.Is(err, context.Canceled) {
		appErr = errors.Cancelled()
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), appErr.Response())
}
