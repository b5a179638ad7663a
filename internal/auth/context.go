package auth

import "context"

type contextKey string

const userContextKey contextKey = "user"

// WithUser stores the signed-in user's claims in the context
func WithUser(ctx context.Context, user *IDClaims) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the signed-in user, or nil
func UserFromContext(ctx context.Context) *IDClaims {
	user, _ := ctx.Value(userContextKey).(*IDClaims)
	return user
}
