// Package apierr defines the typed error taxonomy surfaced at the API
// boundary. Errors are constructed once at the failure site and propagated
// unchanged; the HTTP layer maps them to the error envelope.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category. Codes are part of the public API
// contract and map 1:1 to HTTP statuses.
type Code string

const (
	CodeInvalidInput     Code = "invalid_input"
	CodeAuthMissing      Code = "auth_missing"
	CodeAuthInvalid      Code = "auth_invalid"
	CodeURLBlocked       Code = "url_blocked"
	CodeRateLimited      Code = "rate_limited"
	CodeCreditsExhausted Code = "credits_exhausted"
	CodeAIError          Code = "ai_error"
	CodeInternal         Code = "internal_error"
)

// Error is an immutable boundary error.
type Error struct {
	Status  int    `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is allows errors.Is comparisons by code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

func InvalidInput(message string, details any) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidInput, Message: message, Details: details}
}

func AuthMissing(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeAuthMissing, Message: message}
}

func AuthInvalid(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeAuthInvalid, Message: message}
}

func URLBlocked(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeURLBlocked, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: message}
}

func CreditsExhausted(message string) *Error {
	return &Error{Status: http.StatusPaymentRequired, Code: CodeCreditsExhausted, Message: message}
}

func AIError(message string) *Error {
	return &Error{Status: http.StatusBadGateway, Code: CodeAIError, Message: message}
}

func Internal(message string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message}
}

// FromError returns err as an *Error, wrapping unrecognized errors as
// internal_error so the boundary never leaks untyped failures.
func FromError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err.Error())
}

// IsQuota reports whether err is a provider quota condition that must
// propagate to the caller unmodified instead of degrading to a fallback.
func IsQuota(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeRateLimited || apiErr.Code == CodeCreditsExhausted
}
