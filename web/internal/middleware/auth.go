package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/cvforge/internal/auth"
	"github.com/devilmonastery/cvforge/internal/pkg/urlutil"
	"github.com/devilmonastery/cvforge/web/internal/session"
)

// AuthMiddleware handles authentication checks for requests.
// Token refresh happens lazily in the per-request token provider.
type AuthMiddleware struct {
	sessionManager *session.Manager
	log            *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(sessionManager *session.Manager, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessionManager: sessionManager,
		log:            logger.With(slog.String("component", "auth_middleware")),
	}
}

// IsAuthenticated reports whether r carries a usable session: an access token
// that is still valid or can be refreshed. It never writes to the response.
func (m *AuthMiddleware) IsAuthenticated(r *http.Request) bool {
	return !m.sessionManager.IsTokenExpired(r)
}

// RedirectToLogin sends the user to the login page, remembering where they were going.
// A form post cannot be replayed after login, so it returns to its page instead.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.RequestURI()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		returnTo = auth.DefaultTarget
	}
	http.Redirect(w, r, urlutil.LoginPath(returnTo), http.StatusSeeOther)
}

// RequireAuth is middleware that ensures the user is authenticated.
// Unauthenticated requests are redirected and never reach next.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.IsAuthenticated(r) {
			m.log.Debug("no usable session, redirecting to login",
				slog.String("path", r.URL.Path))
			RedirectToLogin(w, r)
			return
		}

		// Display claims are optional; an expired ID token still names the user
		user, err := m.sessionManager.User(r)
		if user != nil && (err == nil || errors.Is(err, auth.ErrTokenExpired)) {
			r = r.WithContext(auth.WithUser(r.Context(), user))
		}

		next.ServeHTTP(w, r)
	})
}
