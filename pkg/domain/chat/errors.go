package chat

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies provider failures.
type ErrorCode string

const (
	ErrorInvalidRequest       ErrorCode = "invalid-request"
	ErrorAuthenticationFailed ErrorCode = "authentication-failed"
	ErrorRateLimitExceeded    ErrorCode = "rate-limit-exceeded"
	ErrorInternal             ErrorCode = "internal-error"
	ErrorUnsupported          ErrorCode = "unsupported"
)

// Error is a typed provider error. ProviderErrorJSON, when set, holds
// the raw provider response body for diagnostics.
type Error struct {
	Code              ErrorCode `json:"code"`
	Message           string    `json:"message"`
	ProviderErrorJSON string    `json:"provider_error_json,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a typed error with the given code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a typed error with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts a *Error from err's chain. When err is not a typed
// provider error, it is wrapped as an internal error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: ErrorInternal, Message: err.Error()}
}

// ErrorCodeFromStatus maps an HTTP status code from a provider API to
// an error code.
func ErrorCodeFromStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrorInvalidRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorAuthenticationFailed
	case http.StatusTooManyRequests:
		return ErrorRateLimitExceeded
	default:
		return ErrorInternal
	}
}

// IsRetryable reports whether a request failing with this error may
// succeed on retry.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrorRateLimitExceeded, ErrorInternal:
		return true
	default:
		return false
	}
}
