package errors

import (
	"communities/messages/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler writes the first error recorded with c.Error as the response
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors[0].Err
		appErr := FromError(err)

		log := logger.FromContext(c)
		args := []any{
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status_code", appErr.StatusCode,
			"error_code", appErr.Code,
		}
		if appErr.StatusCode >= 500 {
			log.LogError(err, "Request failed", args...)
		} else {
			log.Warn("Request rejected", append(args, "message", appErr.Message)...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.StatusCode, appErr)
	}
}
