package httpserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/config"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/mediaserver"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/session"
)

// --- Mock implementations ---

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, username, password string) (*mediaserver.AuthResult, error)
	calls          int
}

func (m *mockAuthenticator) AuthenticateByName(ctx context.Context, username, password string) (*mediaserver.AuthResult, error) {
	m.calls++
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, username, password)
	}
	return &mediaserver.AuthResult{UserID: "user-1", UserName: "alice", AccessToken: "token"}, nil
}

type mockSubmitter struct {
	submitFn func(ctx context.Context, metainfo []byte) (*domain.AddTorrentResult, error)
	calls    int
	gotBytes []byte
}

func (m *mockSubmitter) SubmitTorrent(ctx context.Context, metainfo []byte) (*domain.AddTorrentResult, error) {
	m.calls++
	m.gotBytes = append([]byte(nil), metainfo...)
	if m.submitFn != nil {
		return m.submitFn(ctx, metainfo)
	}
	return &domain.AddTorrentResult{Status: domain.AddSuccess, Result: "success"}, nil
}

// --- Test server construction ---

type testServerOptions struct {
	cfg           *config.Config
	authenticator mediaserver.Authenticator
	submitter     domain.TorrentSubmitter
	healthChecks  []HealthCheck
}

type testServerOption func(*testServerOptions)

func withConfig(cfg *config.Config) testServerOption {
	return func(o *testServerOptions) { o.cfg = cfg }
}

func withAuthenticator(a mediaserver.Authenticator) testServerOption {
	return func(o *testServerOptions) { o.authenticator = a }
}

func withSubmitter(sub domain.TorrentSubmitter) testServerOption {
	return func(o *testServerOptions) { o.submitter = sub }
}

func withHealthChecks(checks []HealthCheck) testServerOption {
	return func(o *testServerOptions) { o.healthChecks = checks }
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:         "test",
		Port:           "0",
		MediaServerURL: "http://media.invalid",
		DaemonURL:      "http://daemon.invalid",
		DaemonUsername: "daemon-user",
		DaemonPassword: "daemon-pass",
		DaemonTimeout:  time.Second,
		SessionSecret:  "0123456789abcdef0123456789abcdef",
		SessionMaxAge:  time.Hour,
		MaxUploadBytes: 1 << 20,
		ScratchDir:     t.TempDir(),
	}
}

type testServer struct {
	*Server
	store *session.MemoryStore
}

func newTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()

	options := &testServerOptions{
		cfg:           testConfig(t),
		authenticator: &mockAuthenticator{},
		submitter:     &mockSubmitter{},
	}
	for _, opt := range opts {
		opt(options)
	}

	store := session.NewMemoryStore(options.cfg.SessionMaxAge, clockwork.NewRealClock())
	srv := NewServer(options.cfg, store, options.authenticator, options.submitter, options.healthChecks)

	return &testServer{Server: srv, store: store}
}

// loginSession creates a session directly in the store and returns its token.
func (ts *testServer) loginSession(t *testing.T) string {
	t.Helper()
	sess, err := ts.store.Create(context.Background(), "user-1", "alice")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess.Token
}

var errBoom = errors.New("boom")
