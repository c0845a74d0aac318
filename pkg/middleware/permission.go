package middleware

import (
	stderrors "errors"

	"communities/messages/internal/authz"
	"communities/messages/pkg/errors"
	"communities/messages/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authorize runs a single permission check for the authenticated caller.
// It returns nil when allowed and an AppError otherwise.
func Authorize(c *gin.Context, authorizer authz.Authorizer, permission authz.Permission, resource authz.Resource) *errors.AppError {
	actor, ok := UserIDFromContext(c)
	if !ok {
		return errors.NewUnauthorizedError("auth_required", "Authentication required")
	}

	allowed, err := authorizer.Check(c.Request.Context(), actor, permission, resource)
	if err != nil {
		logger.FromContext(c).LogError(err, "Permission check failed",
			"permission", string(permission),
			"resource", resource.ID.String(),
		)
		if stderrors.Is(err, authz.ErrUnavailable) {
			return errors.NewServiceUnavailableError("authz_unavailable", "Authorization is temporarily unavailable")
		}
		return errors.NewInternalServerError("internal_error", "An unexpected error occurred")
	}
	if !allowed {
		return errors.NewForbiddenError("forbidden", "You don't have permission to perform this operation")
	}
	return nil
}

// RequireChannelPermission checks permission on the channel named by the given path parameter
func RequireChannelPermission(authorizer authz.Authorizer, permission authz.Permission, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		channelID, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.Error(errors.NewBadRequestError("invalid_id", "Invalid channel id"))
			c.Abort()
			return
		}

		if appErr := Authorize(c, authorizer, permission, authz.Channel(channelID)); appErr != nil {
			c.Error(appErr)
			c.Abort()
			return
		}

		c.Next()
	}
}
