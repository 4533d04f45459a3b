// Package errors provides structured error handling with context propagation and HTTP status code mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates malformed client input; no outbound call was made (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeUnauthenticated indicates a missing or expired app session (HTTP 401)
	TypeUnauthenticated ErrorType = "unauthenticated"
	// TypeUpstreamAuth indicates the identity provider rejected the credentials (provider status, typically 401)
	TypeUpstreamAuth ErrorType = "upstream_auth"
	// TypeUpstreamUnavailable indicates the identity provider could not be reached (HTTP 502)
	TypeUpstreamUnavailable ErrorType = "upstream_unavailable"
	// TypeConfig indicates required daemon settings are absent (HTTP 500)
	TypeConfig ErrorType = "config"
	// TypeHandshake indicates the daemon violated the session-token handshake protocol (HTTP 502)
	TypeHandshake ErrorType = "handshake"
	// TypeTransport indicates a network or unexpected-status failure talking to the daemon (HTTP 502)
	TypeTransport ErrorType = "transport"
	// TypeTimeout indicates an outbound call exceeded its deadline (HTTP 504)
	TypeTimeout ErrorType = "timeout"
	// TypeDaemonRejected indicates the daemon answered but declined the torrent (HTTP 500)
	TypeDaemonRejected ErrorType = "daemon_rejected"
	// TypeInternal indicates a server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any

	// Status, when non-zero, overrides the type's default HTTP status.
	// Used to propagate the identity provider's own status code.
	Status int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeUnauthenticated, TypeUpstreamAuth:
		return http.StatusUnauthorized
	case TypeUpstreamUnavailable, TypeHandshake, TypeTransport:
		return http.StatusBadGateway
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeConfig, TypeDaemonRejected, TypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message, Context: make(map[string]any)}
}

// UnauthenticatedError creates a new unauthenticated error (HTTP 401).
func UnauthenticatedError(message string) *Error {
	return &Error{Type: TypeUnauthenticated, Message: message, Context: make(map[string]any)}
}

// UpstreamAuthError creates an error for a login the identity provider
// rejected. The provider's status code is propagated to the client.
func UpstreamAuthError(message string, status int, cause error) *Error {
	return &Error{Type: TypeUpstreamAuth, Message: message, Status: status, Cause: cause, Context: make(map[string]any)}
}

// UpstreamUnavailableError creates an error for an unreachable identity provider (HTTP 502).
func UpstreamUnavailableError(message string, cause error) *Error {
	return &Error{Type: TypeUpstreamUnavailable, Message: message, Cause: cause, Context: make(map[string]any)}
}

// ConfigError creates a new configuration error (HTTP 500).
func ConfigError(message string) *Error {
	return &Error{Type: TypeConfig, Message: message, Context: make(map[string]any)}
}

// HandshakeError creates a new daemon-handshake protocol error (HTTP 502).
func HandshakeError(message string, cause error) *Error {
	return &Error{Type: TypeHandshake, Message: message, Cause: cause, Context: make(map[string]any)}
}

// TransportError creates a new daemon transport error (HTTP 502).
func TransportError(message string, cause error) *Error {
	return &Error{Type: TypeTransport, Message: message, Cause: cause, Context: make(map[string]any)}
}

// TimeoutError creates a new outbound timeout error (HTTP 504).
func TimeoutError(message string, cause error) *Error {
	return &Error{Type: TypeTimeout, Message: message, Cause: cause, Context: make(map[string]any)}
}

// DaemonRejectedError creates an error for a torrent the daemon declined (HTTP 500).
func DaemonRejectedError(message string) *Error {
	return &Error{Type: TypeDaemonRejected, Message: message, Context: make(map[string]any)}
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause, Context: make(map[string]any)}
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithField is an alias for WithContext (chainable).
func (e *Error) WithField(key string, value any) *Error {
	return e.WithContext(key, value)
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
