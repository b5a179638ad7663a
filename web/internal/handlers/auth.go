package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/devilmonastery/cvforge/internal/auth"
	"github.com/devilmonastery/cvforge/internal/pkg/metrics"
	"github.com/devilmonastery/cvforge/internal/pkg/urlutil"
)

// exchangeTimeout bounds the code exchange with the identity provider
const exchangeTimeout = 15 * time.Second

// Login starts the authorization code flow, remembering where the user was going
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	returnTo := auth.RedirectTarget(r.URL.Query().Get("returnTo"))

	// Already signed in: nothing to do
	if !h.sessionManager.IsTokenExpired(r) {
		http.Redirect(w, r, returnTo, http.StatusSeeOther)
		return
	}

	state := auth.NewState()
	verifier := auth.NewVerifier()
	if err := h.sessionManager.BeginLogin(r, w, state, verifier, returnTo); err != nil {
		h.log.Error("failed to save login state", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "Sign-in unavailable",
			"We could not start the sign-in. Please try again.")
		return
	}

	h.log.Debug("redirecting to identity provider", slog.String("return_to", returnTo))
	http.Redirect(w, r, h.authenticator.AuthCodeURL(state, verifier), http.StatusFound)
}

// Callback completes the login: it checks state, exchanges the code and stores the tokens
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	flow, err := h.sessionManager.TakeLogin(r, w)
	if err != nil {
		h.log.Warn("failed to clear login state", slog.String("error", err.Error()))
	}

	if providerErr := query.Get("error"); providerErr != "" {
		metrics.LoginAttempts.WithLabelValues("provider_error").Inc()
		h.log.Warn("identity provider returned an error",
			slog.String("error", providerErr),
			slog.String("description", query.Get("error_description")))

		message := query.Get("error_description")
		if message == "" {
			message = "The sign-in was not completed (" + providerErr + ")."
		}
		h.renderError(w, r, http.StatusBadRequest, "Sign-in failed", message)
		return
	}

	state := query.Get("state")
	if flow.State == "" || subtle.ConstantTimeCompare([]byte(state), []byte(flow.State)) != 1 {
		metrics.LoginAttempts.WithLabelValues("state_mismatch").Inc()
		h.log.Warn("login state mismatch", slog.Bool("had_state", flow.State != ""))
		h.renderError(w, r, http.StatusBadRequest, "Sign-in expired",
			"Your sign-in request expired or was started in another tab. Please sign in again.")
		return
	}

	code := query.Get("code")
	if code == "" {
		metrics.LoginAttempts.WithLabelValues("provider_error").Inc()
		h.renderError(w, r, http.StatusBadRequest, "Sign-in failed", "The identity provider sent no authorization code.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), exchangeTimeout)
	defer cancel()

	tok, err := h.authenticator.Exchange(ctx, code, flow.Verifier)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("exchange_failed").Inc()
		h.log.Error("code exchange failed", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusBadGateway, "Sign-in failed",
			"We could not complete the sign-in with the identity provider. Please try again.")
		return
	}

	if err := h.sessionManager.SaveToken(r, w, tok); err != nil {
		h.log.Error("failed to save tokens to session", slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusInternalServerError, "Sign-in failed",
			"We could not save your session. Please try again.")
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	if user := h.getCurrentUser(r); user != nil {
		h.log.Info("user signed in", slog.String("user_id", user.Subject))
	}

	http.Redirect(w, r, auth.RedirectTarget(flow.ReturnTo), http.StatusSeeOther)
}

// Logout clears the session and ends the provider session, coming back to the landing page
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Clear(r, w); err != nil {
		h.log.Error("error clearing session", slog.String("error", err.Error()))
	}

	returnTo, err := urlutil.ExternalURL(h.publicURL, "/")
	if err != nil {
		h.log.Warn("invalid public URL, logging out locally only", slog.String("error", err.Error()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.authenticator.LogoutURL(returnTo), http.StatusSeeOther)
}
