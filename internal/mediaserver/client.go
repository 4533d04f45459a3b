// Package mediaserver implements the identity-provider client.
//
// Authentication is a single POST to the media server's
// /Users/AuthenticateByName endpoint. A rejected login (provider answered
// with an error status) and an unreachable provider are distinct outcomes:
// the first is reported as RejectedError, the second as a plain wrapped error.
package mediaserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/version"
)

const (
	authenticatePath = "/Users/AuthenticateByName"
	clientName       = "Jellyfin Transmission Uploader"
	httpCallTimeout  = 10 * time.Second

	// Provider error bodies are passed through for debugging, capped so a
	// misbehaving upstream cannot balloon responses.
	maxErrorBodyBytes = 4 << 10
)

// AuthResult holds the fields a successful authentication must contain.
type AuthResult struct {
	UserID      string
	UserName    string
	AccessToken string
}

// Authenticator validates credentials against the identity provider.
type Authenticator interface {
	AuthenticateByName(ctx context.Context, username, password string) (*AuthResult, error)
}

// RejectedError means the provider responded with an error status
// (typically 401 for wrong credentials).
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("media server rejected login with status %d", e.StatusCode)
}

// Client is the production Authenticator talking to a Jellyfin/Emby server.
type Client struct {
	baseURL    string
	deviceID   string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		deviceID:   uuid.NewString(),
		httpClient: &http.Client{Timeout: httpCallTimeout},
	}
}

func (c *Client) AuthenticateByName(ctx context.Context, username, password string) (*AuthResult, error) {
	body, err := json.Marshal(map[string]string{
		"Username": username,
		"Pw":       password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+authenticatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Authorization", c.authorizationHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach media server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &RejectedError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	var authResp struct {
		User struct {
			ID   string `json:"Id"`
			Name string `json:"Name"`
		} `json:"User"`
		AccessToken string `json:"AccessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	if authResp.User.ID == "" || authResp.AccessToken == "" {
		return nil, fmt.Errorf("media server response missing user id or access token")
	}

	return &AuthResult{
		UserID:      authResp.User.ID,
		UserName:    authResp.User.Name,
		AccessToken: authResp.AccessToken,
	}, nil
}

func (c *Client) authorizationHeader() string {
	return fmt.Sprintf(`MediaBrowser Client="%s", Device="server", DeviceId="%s", Version="%s"`,
		clientName, c.deviceID, version.Version)
}
