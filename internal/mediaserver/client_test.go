package mediaserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateByName_Success(t *testing.T) {
	var gotPath, gotAuthHeader string
	var gotBody map[string]string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuthHeader = r.Header.Get("X-Emby-Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"User":        map[string]string{"Id": "user-42", "Name": "alice"},
			"AccessToken": "token-abc",
		})
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL)
	result, err := client.AuthenticateByName(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "/Users/AuthenticateByName", gotPath)
	assert.Contains(t, gotAuthHeader, `MediaBrowser Client=`)
	assert.Contains(t, gotAuthHeader, `DeviceId=`)
	assert.Equal(t, map[string]string{"Username": "alice", "Pw": "hunter2"}, gotBody)

	assert.Equal(t, "user-42", result.UserID)
	assert.Equal(t, "alice", result.UserName)
	assert.Equal(t, "token-abc", result.AccessToken)
}

func TestAuthenticateByName_Rejected(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Invalid user or password", http.StatusUnauthorized)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL)
	_, err := client.AuthenticateByName(context.Background(), "alice", "wrong")
	require.Error(t, err)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusUnauthorized, rejected.StatusCode)
	assert.Contains(t, rejected.Body, "Invalid user or password")
}

func TestAuthenticateByName_Unreachable(t *testing.T) {
	// Start and immediately close a server to get a port nothing listens on.
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	upstream.Close()

	client := NewClient(upstream.URL)
	_, err := client.AuthenticateByName(context.Background(), "alice", "hunter2")
	require.Error(t, err)

	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected),
		"an unreachable provider must not look like a rejected login")
}

func TestAuthenticateByName_MissingToken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"User": map[string]string{"Id": "user-42", "Name": "alice"},
		})
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL)
	_, err := client.AuthenticateByName(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing user id or access token")
}

func TestAuthenticateByName_MalformedResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL)
	_, err := client.AuthenticateByName(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode login response")
}
