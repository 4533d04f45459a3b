// Package transmission implements the download-daemon RPC client.
//
// The daemon's RPC protocol requires a two-call dance as CSRF protection: a
// first call is expected to fail with 409 Conflict, whose
// X-Transmission-Session-Id response header carries a session token that the
// real torrent-add call must replay. The first call's failure is control
// flow, not an error. The token is scoped to a single submission and never
// cached across calls, since the daemon may rotate it at any time.
package transmission

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/metrics"
)

const (
	// SessionIDHeader carries the daemon's one-shot session token.
	SessionIDHeader = "X-Transmission-Session-Id"

	rpcPath = "/transmission/rpc"
)

var (
	// ErrHandshakeFailed means the daemon sent the expected conflict but no
	// session token header. Protocol violation by the daemon, not retried.
	ErrHandshakeFailed = errors.New("daemon sent conflict without session id header")

	// ErrUnexpectedHandshakeSuccess means the probe call succeeded outright.
	// Only returned in strict mode; the lenient policy proceeds tokenless.
	ErrUnexpectedHandshakeSuccess = errors.New("daemon accepted probe call without requiring a session token")
)

// TransportError covers network failures, timeouts, and unexpected statuses
// from the daemon. StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("daemon %s returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("daemon %s failed: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Timeout reports whether the failure was a deadline expiry.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// Client submits torrents to a Transmission-compatible daemon.
type Client struct {
	rpcURL     string
	username   string
	password   string
	strict     bool
	httpClient *http.Client
}

// NewClient creates a daemon client. strict controls the policy for a probe
// call that unexpectedly succeeds: fail with ErrUnexpectedHandshakeSuccess,
// or log and proceed without a token.
func NewClient(baseURL, username, password string, timeout time.Duration, strict bool) *Client {
	return &Client{
		rpcURL:     strings.TrimRight(baseURL, "/") + rpcPath,
		username:   username,
		password:   password,
		strict:     strict,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SubmitTorrent runs the two-step handshake and submits the given torrent
// metadata. Exactly one outcome is returned; nothing is retried.
func (c *Client) SubmitTorrent(ctx context.Context, metainfo []byte) (*domain.AddTorrentResult, error) {
	token, err := c.acquireSessionToken(ctx)
	if err != nil {
		return nil, err
	}

	return c.addTorrent(ctx, token, metainfo)
}

// acquireSessionToken issues the bodiless probe call and extracts the session
// token from the expected 409 response.
func (c *Client) acquireSessionToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create probe request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.DaemonCallDuration.WithLabelValues("probe").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", &TransportError{Op: "probe", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		token := resp.Header.Get(SessionIDHeader)
		if token == "" {
			return "", ErrHandshakeFailed
		}
		return token, nil

	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if c.strict {
			return "", ErrUnexpectedHandshakeSuccess
		}
		slog.Warn("Daemon accepted probe call without requiring a session token, proceeding without one",
			"status", resp.StatusCode)
		return "", nil

	default:
		return "", &TransportError{Op: "probe", StatusCode: resp.StatusCode}
	}
}

// addTorrent issues the real torrent-add call, replaying the session token
// and the same credentials.
func (c *Client) addTorrent(ctx context.Context, token string, metainfo []byte) (*domain.AddTorrentResult, error) {
	body, err := json.Marshal(map[string]any{
		"method": "torrent-add",
		"arguments": map[string]string{
			"metainfo": base64.StdEncoding.EncodeToString(metainfo),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode torrent-add request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create torrent-add request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(SessionIDHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.DaemonCallDuration.WithLabelValues("torrent-add").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &TransportError{Op: "torrent-add", Cause: err}
	}
	defer resp.Body.Close()

	// A second conflict means the token expired mid-handshake; the whole
	// handshake is never retried, so this surfaces as a transport failure.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: "torrent-add", StatusCode: resp.StatusCode}
	}

	var rpcResp struct {
		Result    string          `json:"result"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &TransportError{Op: "torrent-add", Cause: fmt.Errorf("failed to decode response: %w", err)}
	}

	result := &domain.AddTorrentResult{
		Result:  rpcResp.Result,
		Payload: rpcResp.Arguments,
	}
	if rpcResp.Result == "success" {
		result.Status = domain.AddSuccess
	} else {
		result.Status = domain.AddRejected
	}
	return result, nil
}
