// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer
// maps them to the uniform JSON error envelope and status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindValidation indicates invalid input data (e.g. zero valid rows).
	KindValidation
	// KindBadRequest indicates a malformed request body or query.
	KindBadRequest
	// KindUnauthorized indicates a missing or invalid bearer token.
	KindUnauthorized
	// KindForbidden indicates the caller lacks the required role.
	KindForbidden
	// KindMethodNotAllowed indicates an unsupported HTTP method.
	KindMethodNotAllowed
	// KindUnsupportedMedia indicates an unsupported request content type.
	KindUnsupportedMedia
	// KindConflict indicates a conflict with existing state.
	KindConflict
	// KindUpstream indicates an external service (e.g. the geocoder) failed.
	KindUpstream
	// KindConfiguration indicates the server is missing required configuration.
	KindConfiguration
	// KindInternal indicates an unexpected internal error, including store errors.
	KindInternal
)

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the operation and returns the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails sets additional response details and returns the error.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// MethodNotAllowed creates a method not allowed error.
func MethodNotAllowed(message string) *Error {
	return New(KindMethodNotAllowed, message)
}

// UnsupportedMedia creates an unsupported content type error.
func UnsupportedMedia(message string) *Error {
	return New(KindUnsupportedMedia, message)
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Upstream creates an external service error.
func Upstream(message string) *Error {
	return New(KindUpstream, message)
}

// Configuration creates a missing-configuration error.
func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is found.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
