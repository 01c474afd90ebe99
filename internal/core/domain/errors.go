package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates a missing credential.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypePermission indicates a credential that failed verification.
	ErrorTypePermission ErrorType = "permission"

	// ErrorTypeUpstreamMetadata indicates the metadata call failed before
	// any body bytes were sent.
	ErrorTypeUpstreamMetadata ErrorType = "upstream_metadata"

	// ErrorTypeUpstreamStream indicates the fragment sequence failed mid-flight.
	ErrorTypeUpstreamStream ErrorType = "upstream_stream"

	// ErrorTypePersistence indicates the history write failed after a
	// successful stream.
	ErrorTypePersistence ErrorType = "persistence"

	// ErrorTypeTransport indicates a client-side read failure.
	ErrorTypeTransport ErrorType = "transport"

	// ErrorTypeMissingMetadata indicates the server omitted the image header.
	ErrorTypeMissingMetadata ErrorType = "missing_metadata"

	// ErrorTypeServer indicates an internal server error.
	ErrorTypeServer ErrorType = "server"
)

// APIError is the canonical error carried across the relay and its client.
type APIError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Param is the parameter that caused the error (if applicable)
	Param string `json:"param,omitempty"`

	// StatusCode is the suggested (or observed) HTTP status code
	StatusCode int `json:"-"`

	cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.cause
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypePermission:
		return http.StatusForbidden
	case ErrorTypeUpstreamMetadata, ErrorTypeUpstreamStream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithParam adds a parameter name to the error.
func (e *APIError) WithParam(param string) *APIError {
	e.Param = param
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// WithCause records the error that triggered this one.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// IsType reports whether err is an APIError of the given type.
func IsType(err error, t ErrorType) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == t
}

// AsAPIError converts any error into an APIError, defaulting to a server error.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return ErrServer("internal error").WithCause(err)
}

// Convenience constructors for common errors

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, message)
}

// ErrAuthentication creates an authentication error.
func ErrAuthentication(message string) *APIError {
	return NewAPIError(ErrorTypeAuthentication, message)
}

// ErrPermission creates a permission error.
func ErrPermission(message string) *APIError {
	return NewAPIError(ErrorTypePermission, message)
}

// ErrUpstreamMetadata wraps a failed metadata call.
func ErrUpstreamMetadata(err error) *APIError {
	return NewAPIError(ErrorTypeUpstreamMetadata, "failed to resolve image").WithCause(err)
}

// ErrUpstreamStream wraps a failed fragment sequence.
func ErrUpstreamStream(err error) *APIError {
	return NewAPIError(ErrorTypeUpstreamStream, "answer stream failed").WithCause(err)
}

// ErrPersistence wraps a failed history write.
func ErrPersistence(err error) *APIError {
	return NewAPIError(ErrorTypePersistence, "failed to save result").WithCause(err)
}

// ErrTransport wraps a client-side read failure.
func ErrTransport(err error) *APIError {
	return NewAPIError(ErrorTypeTransport, "stream read failed").WithCause(err)
}

// ErrMissingMetadata reports a response without the image header.
func ErrMissingMetadata() *APIError {
	return NewAPIError(ErrorTypeMissingMetadata, "did not receive an image URL from the server")
}

// ErrServer creates a server error.
func ErrServer(message string) *APIError {
	return NewAPIError(ErrorTypeServer, message)
}
