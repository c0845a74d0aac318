package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// AppError is the error returned to HTTP clients.
// It serialises as {message, error_code?, status}.
type AppError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"error_code,omitempty"`
	Message    string `json:"message"`
	Stack      string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Stack:      string(debug.Stack()),
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewUnauthorizedError creates a 401 Unauthorized error
func NewUnauthorizedError(code string, message string) *AppError {
	return NewError(http.StatusUnauthorized, code, message)
}

// NewForbiddenError creates a 403 Forbidden error
func NewForbiddenError(code string, message string) *AppError {
	return NewError(http.StatusForbidden, code, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(code string, message string) *AppError {
	return NewError(http.StatusNotFound, code, message)
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(code string, message string) *AppError {
	return NewError(http.StatusConflict, code, message)
}

// NewTooManyRequestsError creates a 429 Too Many Requests error
func NewTooManyRequestsError(code string, message string) *AppError {
	return NewError(http.StatusTooManyRequests, code, message)
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(code string, message string) *AppError {
	return NewError(http.StatusServiceUnavailable, code, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// FromError converts any error to an AppError.
// Errors that are not AppErrors become an opaque internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return NewInternalServerError("internal_error", "An unexpected error occurred")
}

// GetStatusCode extracts the HTTP status code, 500 if err is not an AppError
func GetStatusCode(err error) int {
	return FromError(err).StatusCode
}
