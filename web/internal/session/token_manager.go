package session

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/devilmonastery/cvforge/internal/auth"
)

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
	tokenTypeKey    = "token_type"
	expiryKey       = "expiry"
	idTokenKey      = "id_token"
)

// SaveToken stores tok in the server-side session.
// A token without an id_token (e.g. from a refresh) keeps the previous one.
func (m *Manager) SaveToken(r *http.Request, w http.ResponseWriter, tok *oauth2.Token) error {
	s := m.store(r)

	s.Values[accessTokenKey] = tok.AccessToken
	s.Values[tokenTypeKey] = tok.TokenType
	if tok.RefreshToken != "" {
		s.Values[refreshTokenKey] = tok.RefreshToken
	}
	if tok.Expiry.IsZero() {
		delete(s.Values, expiryKey)
	} else {
		s.Values[expiryKey] = tok.Expiry.Unix()
	}
	if idToken, _ := tok.Extra("id_token").(string); idToken != "" {
		s.Values[idTokenKey] = idToken
	}

	return s.Save(r, w)
}

// LoadToken retrieves the stored token, or ErrNoToken
func (m *Manager) LoadToken(r *http.Request) (*oauth2.Token, error) {
	s := m.store(r)

	access := stringValue(s, accessTokenKey)
	if access == "" {
		return nil, ErrNoToken
	}

	tok := &oauth2.Token{
		AccessToken:  access,
		TokenType:    stringValue(s, tokenTypeKey),
		RefreshToken: stringValue(s, refreshTokenKey),
	}
	if exp, ok := s.Values[expiryKey].(int64); ok {
		tok.Expiry = time.Unix(exp, 0)
	}
	if idToken := stringValue(s, idTokenKey); idToken != "" {
		tok = tok.WithExtra(map[string]any{"id_token": idToken})
	}
	return tok, nil
}

// HasToken checks if a session token exists
func (m *Manager) HasToken(r *http.Request) bool {
	_, err := m.LoadToken(r)
	return err == nil
}

// IDToken returns the raw ID token, or ""
func (m *Manager) IDToken(r *http.Request) string {
	return stringValue(m.store(r), idTokenKey)
}

// requestTokenStore binds the session to one request for auth.SessionTokenProvider
type requestTokenStore struct {
	manager *Manager
	request *http.Request
	writer  http.ResponseWriter
}

// TokenStore returns an auth.TokenStore for this request.
// It must not outlive the request since it writes to w.
func (m *Manager) TokenStore(r *http.Request, w http.ResponseWriter) auth.TokenStore {
	return &requestTokenStore{
		manager: m,
		request: r,
		writer:  w,
	}
}

func (s *requestTokenStore) LoadToken() (*oauth2.Token, error) {
	return s.manager.LoadToken(s.request)
}

func (s *requestTokenStore) SaveToken(tok *oauth2.Token) error {
	return s.manager.SaveToken(s.request, s.writer, tok)
}
