package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
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

// NewValidationError creates a 400 error for a missing or malformed field.
// Always client-caused and never worth retrying.
func NewValidationError(message string) *AppError {
	return NewError(http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// NewNotFoundError creates a 404 error for a lookup miss
func NewNotFoundError(message string) *AppError {
	return NewError(http.StatusNotFound, "NOT_FOUND", message)
}

// NewConflictError creates a 409 error for a uniqueness violation
func NewConflictError(message string) *AppError {
	return NewError(http.StatusConflict, "CONFLICT", message)
}

// NewUnauthorizedError creates a 401 Unauthorized error
func NewUnauthorizedError(code string, message string) *AppError {
	return NewError(http.StatusUnauthorized, code, message)
}

// NewStorageError creates a 500 error for a persistence failure. Callers
// above this layer may retry; internal detail never reaches the client.
func NewStorageError() *AppError {
	return NewError(http.StatusInternalServerError, "STORAGE_ERROR", "server error")
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// FromError converts a standard error to an AppError.
// If the error is already an AppError, it is returned as-is.
// Otherwise, it is wrapped as an internal server error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalServerError("INTERNAL_ERROR", fmt.Sprintf("An unexpected error occurred: %s", err.Error()))
}

// GetStatusCode extracts the HTTP status code from an AppError, returns 500 if not an AppError
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
