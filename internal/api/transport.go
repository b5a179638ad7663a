package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/devilmonastery/cvforge/internal/pkg/metrics"
)

// TokenProvider supplies a bearer token for outgoing backend calls.
// An error or an empty token means the call goes out unauthenticated.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to TokenProvider
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token calls f(ctx)
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken returns a provider that always yields token
func StaticToken(token string) TokenProvider {
	return TokenProviderFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// authTransport attaches "Authorization: Bearer <token>" when a token is available.
// Token failures never fail the request; the backend decides whether to reject it.
// Only requests to host get the token, so a redirect elsewhere never carries it.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenProvider
	host   string
	log    *slog.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host != t.host {
		t.log.Debug("not sending token to foreign host", slog.String("host", req.URL.Host))
		return t.base.RoundTrip(req)
	}

	token := t.token(req)
	if token == "" {
		return t.base.RoundTrip(req)
	}

	// A RoundTripper must not modify the caller's request
	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(authed)
}

func (t *authTransport) token(req *http.Request) string {
	if t.tokens == nil {
		metrics.TokenLookups.WithLabelValues("absent").Inc()
		return ""
	}

	token, err := t.tokens.Token(req.Context())
	if err != nil {
		metrics.TokenLookups.WithLabelValues("error").Inc()
		t.log.Debug("token lookup failed, sending request without authorization",
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()))
		return ""
	}
	if token == "" {
		metrics.TokenLookups.WithLabelValues("absent").Inc()
		return ""
	}

	metrics.TokenLookups.WithLabelValues("attached").Inc()
	return token
}

// metricsTransport wraps an http.RoundTripper to collect metrics on backend calls
type metricsTransport struct {
	base http.RoundTripper
}

// NewMetricsTransport creates a transport wrapper that records count, latency and
// error class for every backend call
func NewMetricsTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &metricsTransport{base: base}
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	metrics.RecordBackendCall(req.Method, req.URL.Path, statusCode, time.Since(start), err)

	return resp, err
}
