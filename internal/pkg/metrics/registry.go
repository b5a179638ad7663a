package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend API Metrics
var (
	// BackendAPICalls tracks calls to the generation backend
	BackendAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvforge_backend_api_calls_total",
			Help: "Total backend API calls by method, endpoint, and status code",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// BackendAPIDuration tracks backend call latency
	BackendAPIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "cvforge_backend_api_duration_ms",
			Help:                            "Backend API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "endpoint"},
	)

	// BackendAPIErrors tracks failed backend calls by error class
	BackendAPIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvforge_backend_api_errors_total",
			Help: "Total backend API errors by endpoint and error type",
		},
		[]string{"endpoint", "error_type"},
	)

	// TokenLookups tracks bearer token attachment outcomes
	TokenLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvforge_token_lookups_total",
			Help: "Bearer token lookups by outcome (attached, absent, error)",
		},
		[]string{"outcome"},
	)
)

// HTTP Metrics
var (
	// HTTPRequests tracks requests served by the web front-end
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvforge_http_requests_total",
			Help: "Total HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks HTTP request latency
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "cvforge_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// LoginAttempts tracks the outcome of login callbacks
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cvforge_login_attempts_total",
			Help: "Login callback outcomes (success, provider_error, state_mismatch, exchange_failed)",
		},
		[]string{"outcome"},
	)
)
