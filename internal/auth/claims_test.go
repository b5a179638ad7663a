package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func createTestToken(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// ParseUnverified doesn't check signatures
	tokenString, _ := token.SigningString()
	return tokenString + ".fake_signature"
}

func TestParseIDToken_Valid(t *testing.T) {
	raw := createTestToken(jwt.MapClaims{
		"sub":     "auth0|123",
		"email":   "jane@example.com",
		"name":    "Jane Doe",
		"picture": "https://cdn.example.com/jane.png",
		"exp":     float64(time.Now().Add(time.Hour).Unix()),
	})

	claims, err := ParseIDToken(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.Subject != "auth0|123" {
		t.Errorf("expected Subject=auth0|123, got %v", claims.Subject)
	}
	if claims.Email != "jane@example.com" {
		t.Errorf("expected Email=jane@example.com, got %v", claims.Email)
	}
	if claims.DisplayName() != "Jane Doe" {
		t.Errorf("expected DisplayName=Jane Doe, got %v", claims.DisplayName())
	}
}

func TestParseIDToken_Expired(t *testing.T) {
	raw := createTestToken(jwt.MapClaims{
		"sub": "auth0|123",
		"exp": float64(time.Now().Add(-time.Hour).Unix()),
	})

	claims, err := ParseIDToken(raw)
	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	if claims == nil || claims.Subject != "auth0|123" {
		t.Errorf("expected claims to be returned with the expiry error, got %+v", claims)
	}
}

func TestParseIDToken_MissingSubject(t *testing.T) {
	raw := createTestToken(jwt.MapClaims{
		"email": "jane@example.com",
		"exp":   float64(time.Now().Add(time.Hour).Unix()),
	})

	if _, err := ParseIDToken(raw); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseIDToken_Empty(t *testing.T) {
	if _, err := ParseIDToken(""); err != ErrNoToken {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestParseIDToken_Garbage(t *testing.T) {
	if _, err := ParseIDToken("not-a-jwt"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	c := &IDClaims{Subject: "sub-1", Email: "e@example.com"}
	if c.DisplayName() != "e@example.com" {
		t.Errorf("expected email fallback, got %q", c.DisplayName())
	}
	c.Email = ""
	if c.DisplayName() != "sub-1" {
		t.Errorf("expected subject fallback, got %q", c.DisplayName())
	}
}

func TestUserContext(t *testing.T) {
	if UserFromContext(context.Background()) != nil {
		t.Error("expected no user in empty context")
	}
	user := &IDClaims{Subject: "s"}
	if got := UserFromContext(WithUser(context.Background(), user)); got != user {
		t.Errorf("UserFromContext() = %v, want %v", got, user)
	}
}
