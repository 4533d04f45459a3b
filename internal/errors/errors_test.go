package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus_ByType(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation", ValidationError("bad input"), http.StatusBadRequest},
		{"unauthenticated", UnauthenticatedError("no session"), http.StatusUnauthorized},
		{"upstream unavailable", UpstreamUnavailableError("provider down", nil), http.StatusBadGateway},
		{"config", ConfigError("daemon credentials missing"), http.StatusInternalServerError},
		{"handshake", HandshakeError("no session id header", nil), http.StatusBadGateway},
		{"transport", TransportError("connection refused", nil), http.StatusBadGateway},
		{"timeout", TimeoutError("daemon call timed out", nil), http.StatusGatewayTimeout},
		{"daemon rejected", DaemonRejectedError("duplicate torrent"), http.StatusInternalServerError},
		{"internal", InternalError("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestHTTPStatus_UpstreamAuthPropagatesProviderStatus(t *testing.T) {
	err := UpstreamAuthError("invalid credentials", http.StatusForbidden, nil)
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus())

	// Without an explicit status the type default applies.
	err = &Error{Type: TypeUpstreamAuth, Message: "invalid credentials"}
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatus())
}

func TestError_ErrorString(t *testing.T) {
	err := TransportError("daemon unreachable", errors.New("dial tcp: connection refused"))
	assert.Equal(t, "transport: daemon unreachable: dial tcp: connection refused", err.Error())

	err = ValidationError("missing username")
	assert.Equal(t, "validation: missing username", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := InternalError("wrapper", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured error passes through", func(t *testing.T) {
		orig := DaemonRejectedError("duplicate torrent")
		got := AsStructuredError(orig)
		assert.Same(t, orig, got)
	})

	t.Run("wrapped structured error is recovered", func(t *testing.T) {
		orig := TimeoutError("timeout", nil)
		wrapped := fmt.Errorf("submit failed: %w", orig)
		got := AsStructuredError(wrapped)
		assert.Same(t, orig, got)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := AsStructuredError(errors.New("plain"))
		require.NotNil(t, got)
		assert.Equal(t, TypeInternal, got.Type)
		assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus())
	})
}

func TestToResponse(t *testing.T) {
	err := HandshakeError("conflict without session id header", nil).
		WithField("status", 409)

	resp := err.ToResponse()
	assert.Equal(t, "conflict without session id header", resp.Error)
	assert.Equal(t, TypeHandshake, resp.Type)
	assert.Equal(t, 409, resp.Context["status"])
}
