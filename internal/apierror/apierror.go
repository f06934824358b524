// Package apierror provides standardized error response structures for the API
// and the typed domain errors the services raise. All errors returned to
// clients go through this package to ensure consistency and to prevent leaking
// internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}

// Kind classifies a domain error into one of the outcomes the API surfaces
// distinctly. Services return *Error values; handlers map the kind to a status
// code with StatusFor.
type Kind int

const (
	KindInvalidInput Kind = iota // missing or malformed required field
	KindForbidden                // caller lacks the role/capability
	KindNotFound                 // referenced entity does not exist
	KindConflict                 // concurrent clash or duplicate-open attempt
	KindInvalidState             // operation illegal for the current lifecycle state
)

// Error is a domain error with a user-displayable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func InvalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func InvalidState(msg string) *Error { return &Error{Kind: KindInvalidState, Message: msg} }

// KindOf extracts the kind of err, or ok=false when err is not a domain error.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// StatusFor maps a domain error to its HTTP status. Non-domain errors map to
// 500 so the error-handler middleware can log them without leaking details.
func StatusFor(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
