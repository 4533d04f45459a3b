// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Authentication metrics
var (
	// LoginsTotal tracks login attempts by result (success, rejected, unavailable, invalid)
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total login attempts by result",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks the number of live sessions in the store
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of active sessions",
		},
	)
)

// Upload and daemon metrics
var (
	// UploadsTotal tracks torrent uploads by outcome (success, rejected, handshake_failed, transport_failed, config_error)
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total torrent uploads by outcome",
		},
		[]string{"outcome"},
	)

	// DaemonCallDuration tracks outbound daemon RPC latency in seconds
	DaemonCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "daemon_call_duration_seconds",
			Help:    "Daemon RPC call duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"call"},
	)

	// HTTPErrorsTotal tracks HTTP errors by error type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)
