package auth

import (
	"context"
	"log/slog"

	"golang.org/x/oauth2"
)

// TokenStore persists the user's tokens, typically in the session cookie
type TokenStore interface {
	LoadToken() (*oauth2.Token, error)
	SaveToken(tok *oauth2.Token) error
}

// SessionTokenProvider yields the current user's access token for backend calls.
// It is created per request. Every failure becomes an empty token so the call
// proceeds unauthenticated and the backend decides.
type SessionTokenProvider struct {
	auth  *Authenticator
	store TokenStore
	log   *slog.Logger
}

// NewSessionTokenProvider creates a provider backed by store
func NewSessionTokenProvider(a *Authenticator, store TokenStore, log *slog.Logger) *SessionTokenProvider {
	if log == nil {
		log = slog.Default()
	}
	return &SessionTokenProvider{
		auth:  a,
		store: store,
		log:   log.With(slog.String("component", "token_provider")),
	}
}

// Token returns a valid access token, refreshing it if it expired, or "" if none is available
func (p *SessionTokenProvider) Token(ctx context.Context) (string, error) {
	tok, err := p.store.LoadToken()
	if err != nil || tok == nil {
		return "", nil
	}
	if tok.Valid() {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" || p.auth == nil {
		p.log.Debug("access token expired and no refresh token available")
		return "", nil
	}

	fresh, err := p.auth.TokenSource(ctx, tok).Token()
	if err != nil {
		p.log.Warn("token refresh failed", slog.String("error", err.Error()))
		return "", nil
	}

	if err := p.store.SaveToken(fresh); err != nil {
		p.log.Warn("failed to persist refreshed token", slog.String("error", err.Error()))
	}
	return fresh.AccessToken, nil
}
