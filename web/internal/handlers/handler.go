package handlers

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/cvforge/internal/api"
	"github.com/devilmonastery/cvforge/internal/auth"
	"github.com/devilmonastery/cvforge/internal/pkg/urlutil"
	"github.com/devilmonastery/cvforge/web/internal/render"
	"github.com/devilmonastery/cvforge/web/internal/session"
)

// toolPath is where every tool action lands after it completes
const toolPath = "/tool#top"

// Config holds dependencies for all web handlers
type Config struct {
	API           *api.Client
	Authenticator *auth.Authenticator
	Sessions      *session.Manager
	Templates     *render.TemplateSet
	LandingCopy   string // markdown
	PublicURL     string
	Version       string
	Logger        *slog.Logger
}

// Handler holds dependencies for all web handlers
type Handler struct {
	api            *api.Client
	authenticator  *auth.Authenticator
	sessionManager *session.Manager
	templates      *render.TemplateSet
	landingCopy    template.HTML
	publicURL      string
	version        string
	log            *slog.Logger
}

// New creates a new handler with dependencies
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		api:            cfg.API,
		authenticator:  cfg.Authenticator,
		sessionManager: cfg.Sessions,
		templates:      cfg.Templates,
		landingCopy:    render.Markdown(cfg.LandingCopy),
		publicURL:      cfg.PublicURL,
		version:        cfg.Version,
		log:            logger.With(slog.String("component", "web_handler")),
	}
}

// getClient returns an API client that authenticates as the session's user.
// It must only be used while serving r, since refreshed tokens are written to w.
func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) *api.Client {
	store := h.sessionManager.TokenStore(r, w)
	return h.api.WithTokenProvider(auth.NewSessionTokenProvider(h.authenticator, store, h.log))
}

// getCurrentUser gets the display claims from the session's ID token.
// Returns nil if nobody is signed in or the ID token is unreadable.
func (h *Handler) getCurrentUser(r *http.Request) *auth.IDClaims {
	if user := auth.UserFromContext(r.Context()); user != nil {
		return user
	}
	user, err := h.sessionManager.User(r)
	if err != nil && !errors.Is(err, auth.ErrTokenExpired) {
		if !errors.Is(err, session.ErrNoToken) {
			h.log.Debug("failed to read user from session", slog.String("error", err.Error()))
		}
		return nil
	}
	return user
}

// newTemplateData creates a new template data map with standard fields populated.
// Callers can add page-specific fields to the returned map.
func (h *Handler) newTemplateData(w http.ResponseWriter, r *http.Request) map[string]any {
	return map[string]any{
		"User":     h.getCurrentUser(r),
		"SignedIn": !h.sessionManager.IsTokenExpired(r),
		"Flashes":  h.sessionManager.Flashes(r, w),
		"Version":  h.version,
	}
}

// renderTemplate renders a page with data
func (h *Handler) renderTemplate(w http.ResponseWriter, status int, name string, data any) {
	if h.templates == nil {
		http.Error(w, "Templates not loaded", http.StatusInternalServerError)
		return
	}
	h.log.Debug("rendering template", slog.String("template", name))

	// Render fully before writing so a template error can still become a 500
	var buf bytes.Buffer
	if err := h.templates.Execute(&buf, name, data); err != nil {
		h.log.Error("template rendering failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows the error page
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	data := h.newTemplateData(w, r)
	data["Heading"] = heading
	data["Message"] = message
	h.renderTemplate(w, status, "error.html", data)
}

// flash queues a message and returns to the tool page
func (h *Handler) flash(w http.ResponseWriter, r *http.Request, kind session.FlashKind, message string) {
	if err := h.sessionManager.AddFlash(r, w, kind, message); err != nil {
		h.log.Error("failed to save flash message", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, toolPath, http.StatusSeeOther)
}

// handleAPIError reports a failed backend call to the user.
// A 401 means the session is no longer accepted, so it is cleared and the user signs in again.
func (h *Handler) handleAPIError(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, context.Canceled) {
		// Client went away
		return
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		h.log.Info("backend rejected session, clearing it",
			slog.String("action", action))
		h.clearSessionAndRedirect(w, r)
		return
	}

	h.log.Error("backend call failed",
		slog.String("action", action),
		slog.String("error", err.Error()))
	h.flash(w, r, session.FlashError, userMessage(action, err))
}

// userMessage turns a backend failure into something fit to show
func userMessage(action string, err error) string {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return action + " failed: " + apiErr.Detail
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden:
		return action + " failed: you are not allowed to do this."
	case errors.As(err, &apiErr):
		return action + " failed: the service returned " + http.StatusText(apiErr.StatusCode) + "."
	case errors.Is(err, context.DeadlineExceeded):
		return action + " took too long. Please try again."
	default:
		return action + " failed: the service is unavailable. Please try again."
	}
}

// clearSessionAndRedirect clears the session and redirects to login
func (h *Handler) clearSessionAndRedirect(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Clear(r, w); err != nil {
		h.log.Error("error clearing session", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, urlutil.LoginPath("/tool"), http.StatusSeeOther)
}
