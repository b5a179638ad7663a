package session

import (
	"net/http"

	"github.com/devilmonastery/cvforge/internal/auth"
)

// User returns the signed-in user's display claims from the stored ID token.
// Returns ErrNoToken when nobody is signed in. An expired ID token is reported
// with ErrTokenExpired alongside its claims; the access token may still be refreshable.
func (m *Manager) User(r *http.Request) (*auth.IDClaims, error) {
	if !m.HasToken(r) {
		return nil, ErrNoToken
	}
	return auth.ParseIDToken(m.IDToken(r))
}

// IsTokenExpired reports whether the stored access token has expired
// and cannot be refreshed. No token counts as expired.
func (m *Manager) IsTokenExpired(r *http.Request) bool {
	tok, err := m.LoadToken(r)
	if err != nil {
		return true
	}
	return !tok.Valid() && tok.RefreshToken == ""
}
