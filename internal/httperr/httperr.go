// Package httperr provides the explicit HTTP error type handlers return
// when they already know how a failure must be reported.
package httperr

import (
	"fmt"
	"net/http"
)

// Error is an error carrying an explicit HTTP status and an optional
// structured payload. The error normalizer reports it as-is.
type Error struct {
	Status  int
	Message string
	Details any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// New creates an Error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// WithDetails returns a copy of the error carrying a structured payload.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Status: e.Status, Message: e.Message, Details: details}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

// NotFound creates a 404 error.
func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

// Conflict creates a 409 error.
func Conflict(message string) *Error { return New(http.StatusConflict, message) }

// Internal creates a 500 error.
func Internal(message string) *Error { return New(http.StatusInternalServerError, message) }
