package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextKey is the gin context key of the request-scoped logger
	ContextKey = "logger"
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"
)

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")
		if requestID == "" {
			requestID = c.GetHeader(RequestIDHeader)
		}
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header(RequestIDHeader, requestID)
		}

		reqLogger := logger.WithRequestID(requestID)
		c.Set(ContextKey, reqLogger)

		start := time.Now()
		c.Next()

		// the user is only known once auth has run
		if userID, ok := c.Get("userId"); ok {
			reqLogger = reqLogger.WithUserID(fmt.Sprintf("%v", userID))
		}
		reqLogger.LogRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// FromContext returns the request-scoped logger, or the global one
func FromContext(c *gin.Context) *Logger {
	if l, ok := c.Get(ContextKey); ok {
		if reqLogger, ok := l.(*Logger); ok {
			return reqLogger
		}
	}
	return GetGlobal()
}
