package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned when there is no token to inspect
	ErrNoToken = errors.New("no token")

	// ErrInvalidToken is returned when the token cannot be parsed
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")
)

// IDClaims holds the display claims from an ID token
type IDClaims struct {
	Subject   string
	Email     string
	Name      string
	Picture   string
	ExpiresAt time.Time
}

// DisplayName picks the friendliest available identifier
func (c *IDClaims) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Email != "":
		return c.Email
	default:
		return c.Subject
	}
}

// ParseIDToken extracts claims from an ID token without verifying its signature.
// The token must come straight from the provider's token endpoint over TLS, and the
// claims are only used for display; the backend verifies access tokens itself.
func ParseIDToken(raw string) (*IDClaims, error) {
	if raw == "" {
		return nil, ErrNoToken
	}

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, ErrInvalidToken
	}

	out := &IDClaims{Subject: sub}
	out.Email, _ = claims["email"].(string)
	out.Name, _ = claims["name"].(string)
	out.Picture, _ = claims["picture"].(string)

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
		if time.Now().After(exp.Time) {
			return out, ErrTokenExpired
		}
	}

	return out, nil
}
