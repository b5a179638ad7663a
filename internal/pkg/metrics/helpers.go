package metrics

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// RecordBackendCall records backend API call metrics consistently
// endpoint: normalized API path (e.g., "/api/generate")
// statusCode: HTTP status code, 0 if no response was received
// err: transport error (nil if a response was received)
func RecordBackendCall(method, endpoint string, statusCode int, duration time.Duration, err error) {
	BackendAPICalls.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	BackendAPIDuration.WithLabelValues(method, endpoint).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		BackendAPIErrors.WithLabelValues(endpoint, ClassifyError(statusCode, err)).Inc()
	}
}

// RecordHTTPRequest records metrics for a request served by the web front-end
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(float64(duration.Milliseconds()))
}

// ClassifyError categorizes backend call failures for metrics
func ClassifyError(statusCode int, err error) string {
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return "canceled"
		case errors.Is(err, context.DeadlineExceeded):
			return "timeout"
		}
		errStr := strings.ToLower(err.Error())
		switch {
		case strings.Contains(errStr, "timeout"):
			return "timeout"
		case strings.Contains(errStr, "connection"):
			return "connection"
		case strings.Contains(errStr, "tls"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
