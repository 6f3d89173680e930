// Package apperr defines the error taxonomy shared by all domain services:
// validation (400, with optional field-level messages), permission (403),
// not-found (404), authentication (401) and internal (500). Handlers never
// map errors themselves; the echo HTTPErrorHandler in this package does.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is the application error type carried from services to the HTTP layer.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for f, msg := range e.Fields {
			parts = append(parts, f+": "+msg)
		}
		return e.Message + " (" + strings.Join(parts, "; ") + ")"
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation reports malformed or contradictory input.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// FieldValidation reports validation failures keyed by field name.
func FieldValidation(fields map[string]string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: "validation failed", Fields: fields}
}

// Permission reports a failed role or ownership check.
func Permission(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent entity.
func NotFound(resource string) *Error {
	return &Error{Status: http.StatusNotFound, Message: resource + " not found"}
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// TooManyRequests reports a throttled client.
func TooManyRequests(msg string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Message: msg}
}

// Internal wraps an unexpected fault. The cause is logged, never serialized.
func Internal(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "internal server error", cause: cause}
}

// StatusOf returns the HTTP status an error maps to.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether err is a 400-class application error.
func IsValidation(err error) bool { return StatusOf(err) == http.StatusBadRequest }

// IsPermission reports whether err is a 403-class application error.
func IsPermission(err error) bool { return StatusOf(err) == http.StatusForbidden }

// IsNotFound reports whether err is a 404-class application error.
func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }
