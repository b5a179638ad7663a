package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/devilmonastery/cvforge/internal/pkg/urlutil"
)

// DefaultScopes requests an ID token and a refresh token
var DefaultScopes = []string{"openid", "profile", "email", "offline_access"}

// Config holds identity provider settings
type Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	Audience     string // optional API audience
	RedirectURI  string
	Scopes       []string
	Discovery    bool // resolve endpoints from the OIDC discovery document
}

// Authenticator drives the authorization code flow against the identity provider.
// It is built once at startup and is immutable afterwards.
type Authenticator struct {
	oauth     *oauth2.Config
	domain    string
	audience  string
	logoutURL string // end_session_endpoint when discovered
}

// New configures the identity provider integration
func New(ctx context.Context, cfg Config) (*Authenticator, error) {
	if cfg.Domain == "" {
		return nil, errors.New("auth: domain is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("auth: client id is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	a := &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  urlutil.AuthorizeEndpoint(cfg.Domain),
				TokenURL: urlutil.TokenEndpoint(cfg.Domain),
			},
		},
		domain:   cfg.Domain,
		audience: cfg.Audience,
	}

	if cfg.Discovery {
		doc, err := Discover(ctx, http.DefaultClient, urlutil.IssuerURL(cfg.Domain))
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		a.oauth.Endpoint.AuthURL = doc.AuthorizationEndpoint
		a.oauth.Endpoint.TokenURL = doc.TokenEndpoint
		a.logoutURL = doc.EndSessionEndpoint
	}

	return a, nil
}

// Audience returns the configured API audience, if any
func (a *Authenticator) Audience() string {
	return a.audience
}

// AuthCodeURL builds the provider login URL for a PKCE (S256) authorization request
func (a *Authenticator) AuthCodeURL(state, verifier string) string {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
	if a.audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", a.audience))
	}
	return a.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for tokens
func (a *Authenticator) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := a.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// TokenSource returns a source that refreshes tok when it expires
func (a *Authenticator) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return a.oauth.TokenSource(ctx, tok)
}

// LogoutURL returns the provider logout URL that sends the browser back to returnTo
func (a *Authenticator) LogoutURL(returnTo string) string {
	if a.logoutURL == "" {
		return urlutil.LogoutURL(a.domain, a.oauth.ClientID, returnTo)
	}

	u, err := url.Parse(a.logoutURL)
	if err != nil {
		return urlutil.LogoutURL(a.domain, a.oauth.ClientID, returnTo)
	}
	q := u.Query()
	q.Set("client_id", a.oauth.ClientID)
	if returnTo != "" {
		q.Set("post_logout_redirect_uri", returnTo)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewState generates an opaque value for CSRF protection of the login round-trip
func NewState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// NewVerifier generates a PKCE code verifier
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}
