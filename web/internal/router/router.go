// Package router is the web front-end's route table
package router

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devilmonastery/cvforge/web/internal/handlers"
	"github.com/devilmonastery/cvforge/web/internal/middleware"
)

// Config holds what the route table needs
type Config struct {
	Handler *handlers.Handler
	Auth    *middleware.AuthMiddleware
	Static  fs.FS // served under /static/
	Version string
	Logger  *slog.Logger
}

// New sets up the HTTP router with all routes and middleware
func New(cfg Config) http.Handler {
	h := cfg.Handler
	guard := cfg.Auth.RequireAuth

	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.LogRequest(cfg.Logger))

	// Static assets are embedded in the binary, so they only change with a release
	static := http.StripPrefix("/static/", http.FileServer(http.FS(cfg.Static)))
	router.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		static.ServeHTTP(w, r)
	})).Methods(http.MethodGet, http.MethodHead).Name("static")

	// Service endpoints (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet, http.MethodHead).Name("health")

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": cfg.Version})
	}).Methods(http.MethodGet, http.MethodHead).Name("version")

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")

	// Public pages
	router.HandleFunc("/", h.Landing).Methods(http.MethodGet, http.MethodHead).Name("landing")
	router.HandleFunc("/login", h.Login).Methods(http.MethodGet).Name("login")
	router.HandleFunc("/callback", h.Callback).Methods(http.MethodGet).Name("callback")
	router.HandleFunc("/logout", h.Logout).Methods(http.MethodPost).Name("logout")

	// Tool (auth required)
	router.Handle("/tool", guard(http.HandlerFunc(h.Tool))).Methods(http.MethodGet, http.MethodHead).Name("tool")
	router.Handle("/tool/generate", guard(http.HandlerFunc(h.Generate))).Methods(http.MethodPost).Name("tool_generate")
	router.Handle("/tool/generate-pdf", guard(http.HandlerFunc(h.GeneratePDF))).Methods(http.MethodPost).Name("tool_generate_pdf")
	router.Handle("/tool/render", guard(http.HandlerFunc(h.Render))).Methods(http.MethodPost).Name("tool_render")
	router.Handle("/tool/edit", guard(http.HandlerFunc(h.Edit))).Methods(http.MethodPost).Name("tool_edit")
	router.Handle("/tool/import", guard(http.HandlerFunc(h.Import))).Methods(http.MethodPost).Name("tool_import")
	router.Handle("/tool/template/load", guard(http.HandlerFunc(h.LoadTemplate))).Methods(http.MethodPost).Name("tool_template_load")
	router.Handle("/tool/template", guard(http.HandlerFunc(h.SaveTemplate))).Methods(http.MethodPost).Name("tool_template_save")

	// Everything else goes back to the start page, except the start page itself
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}).Name("catch_all")

	return router
}
