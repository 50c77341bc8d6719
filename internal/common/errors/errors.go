// Package errors provides typed application errors for the OpenLink services.
// Each error carries a machine-readable code and the HTTP status used by the
// auth endpoints to map failures onto responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared across services.
const (
	CodeConfiguration  = "CONFIGURATION"
	CodeAuthentication = "AUTHENTICATION"
	CodeTransport      = "TRANSPORT"
	CodeSerialization  = "SERIALIZATION"
	CodeProtocol       = "PROTOCOL"
	CodeStateConflict  = "STATE_CONFLICT"
	CodeNotFound       = "NOT_FOUND"
	CodePolicy         = "POLICY"
	CodeInternal       = "INTERNAL"
	CodeBadRequest     = "BAD_REQUEST"
	CodeBadGateway     = "BAD_GATEWAY"
)

// AppError is the unified error type for OpenLink services.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with an explicit code and HTTP status.
func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{Code: CodeAuthentication, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// NotFound creates a 404 error.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Conflict creates a 409 error, used for exhausted compare-and-swap retries.
func Conflict(message string) *AppError {
	return &AppError{Code: CodeStateConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// BadGateway creates a 502 error for upstream (identity provider) failures.
func BadGateway(message string, err error) *AppError {
	return &AppError{Code: CodeBadGateway, Message: message, HTTPStatus: http.StatusBadGateway, Err: err}
}

// InternalError creates a 500 error wrapping an underlying cause.
func InternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// Wrap annotates an existing error with a code and message, preserving the
// HTTP status when the cause is already an AppError.
func Wrap(err error, code, message string) *AppError {
	status := http.StatusInternalServerError
	var appErr *AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError extracts an AppError from an error chain.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetCode returns the error code for any error, defaulting to INTERNAL.
func GetCode(err error) string {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// GetHTTPStatus returns the HTTP status for any error, defaulting to 500.
func GetHTTPStatus(err error) int {
	if appErr, ok := IsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
