package api

import (
	stderrors "errors"

	"communities/messages/internal/service"
	"communities/messages/pkg/errors"

	"github.com/gin-gonic/gin"
)

// toAppError maps the service error vocabulary onto HTTP errors
func toAppError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, service.ErrNotFound):
		return errors.NewNotFoundError("message_not_found", "Message not found")
	case stderrors.Is(err, service.ErrInvalidContent):
		return errors.NewBadRequestError("invalid_content", "Message content must not be empty")
	case stderrors.Is(err, service.ErrInvalidQuery):
		return errors.NewBadRequestError("invalid_query", "Search query must not be empty")
	case stderrors.Is(err, service.ErrUnavailable), stderrors.Is(err, service.ErrUnhealthy):
		return errors.NewServiceUnavailableError("database_unavailable", "Message store is unavailable")
	default:
		return errors.NewInternalServerError("internal_error", "An unexpected error occurred")
	}
}

func fail(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode >= 500 {
		// keep the cause for the error log
		c.Error(stderrors.Join(appErr, err))
		return
	}
	c.Error(appErr)
}

func invalidID(c *gin.Context, what string) {
	c.Error(errors.NewBadRequestError("invalid_id", "Invalid "+what+" id"))
}
