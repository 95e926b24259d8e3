package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counter metrics (monotonically increasing)
var (
	// RequestsTotal counts API requests by method, normalized path and status code
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiodesk_client_requests_total",
			Help: "Total number of API requests sent",
		},
		[]string{"method", "path", "status"},
	)

	// UploadAttemptsTotal counts multipart upload attempts by outcome (success, retry, failure)
	UploadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiodesk_upload_attempts_total",
			Help: "Total number of upload attempts",
		},
		[]string{"outcome"},
	)

	// UploadBytesTotal counts bytes streamed in upload request bodies, including retried attempts
	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studiodesk_upload_bytes_total",
			Help: "Total number of upload body bytes sent",
		},
	)

	// TokenRefreshTotal counts credential refresh calls by result (success, failure)
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiodesk_token_refresh_total",
			Help: "Total number of credential refresh calls",
		},
		[]string{"result"},
	)

	// SessionTerminationsTotal counts forced session terminations by reason
	SessionTerminationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiodesk_session_terminations_total",
			Help: "Total number of forced session terminations",
		},
		[]string{"reason"},
	)
)

// Histogram metrics (distributions)
var (
	// RequestDuration tracks API request latency by method and path
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studiodesk_client_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"method", "path"},
	)
)
