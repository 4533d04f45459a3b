package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessReportsUptime(t *testing.T) {
	ts := newTestServer(t)

	rec := doRequest(ts, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime")
}

func TestReadinessWithoutChecks(t *testing.T) {
	ts := newTestServer(t)

	rec := doRequest(ts, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestReadinessWithFailingCheck(t *testing.T) {
	checks := []HealthCheck{
		{Name: "redis", Check: func(ctx context.Context) error { return nil }},
		{Name: "broken", Check: func(ctx context.Context) error { return errBoom }},
	}
	ts := newTestServer(t, withHealthChecks(checks))

	rec := doRequest(ts, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "broken", body["failed_check"])
}

func TestStartupProbe(t *testing.T) {
	ts := newTestServer(t)

	rec := doRequest(ts, httptest.NewRequest(http.MethodGet, "/health/startup", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVersionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := doRequest(ts, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "version")
}
