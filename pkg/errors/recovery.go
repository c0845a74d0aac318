package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"communities/messages/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RecoveryWithLogger recovers from panics and answers with a 500 error body
func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c).Error("Panic recovered",
					"error", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, &AppError{
					StatusCode: http.StatusInternalServerError,
					Code:       "internal_error",
					Message:    "The server encountered an unexpected error",
				})
			}
		}()

		c.Next()
	}
}
