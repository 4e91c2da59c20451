package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// EmptyMessage rejects a send whose body is empty after trimming.
func EmptyMessage() *AppError {
	return &AppError{
		Code:    "EMPTY_MESSAGE",
		Message: "Message body must not be empty",
		Status:  http.StatusBadRequest,
	}
}

// MissingTarget rejects a private or group send without a target id.
func MissingTarget(scope string) *AppError {
	return &AppError{
		Code:    "MISSING_TARGET",
		Message: fmt.Sprintf("A %s message requires a target id", scope),
		Status:  http.StatusBadRequest,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// StoreUnavailable wraps a transient backend failure; callers may retry.
func StoreUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:    "STORE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// PermissionDenied wraps a backend rejection; fatal for that call only.
func PermissionDenied(message string, err error) *AppError {
	return &AppError{
		Code:    "PERMISSION_DENIED",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// PreviewUnavailable reports a failed link-preview fetch; never fatal to a send.
func PreviewUnavailable(url string, err error) *AppError {
	return &AppError{
		Code:    "PREVIEW_UNAVAILABLE",
		Message: fmt.Sprintf("Could not build a preview for %s", url),
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
