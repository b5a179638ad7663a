package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/devilmonastery/cvforge/internal/api"
	"github.com/devilmonastery/cvforge/internal/auth"
	"github.com/devilmonastery/cvforge/internal/pkg/logger"
	"github.com/devilmonastery/cvforge/internal/templates"
	"github.com/devilmonastery/cvforge/web/assets"
	"github.com/devilmonastery/cvforge/web/internal/config"
	"github.com/devilmonastery/cvforge/web/internal/handlers"
	"github.com/devilmonastery/cvforge/web/internal/middleware"
	"github.com/devilmonastery/cvforge/web/internal/render"
	"github.com/devilmonastery/cvforge/web/internal/router"
	"github.com/devilmonastery/cvforge/web/internal/session"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

// setupWebLogging configures the global logger for the web service
func setupWebLogging(logLevel, logFormat string) error {
	cfg := logger.Config{
		Level:       logger.ParseLevel(logLevel),
		LogToStderr: true, // Web service always logs to stderr
		Format:      logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	// Set as default logger so all slog.Info/Warn/Error calls use our configured logger
	slog.SetDefault(globalLogger)

	return nil
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging (must be done before any logging calls)
	if err = setupWebLogging(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := logger.WithComponent(slog.Default(), "web")
	log.Info("starting cvforge web service", slog.String("version", Version))

	if err := run(cfg, log); err != nil {
		log.Error("web service stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.WebServerConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The UI offers these ids to the backend, so a broken list is a startup error
	if err := templates.Validate(templates.All()); err != nil {
		return fmt.Errorf("invalid template registry: %w", err)
	}

	tmpl, err := render.LoadTemplates(assets.FS, assets.TemplatesRoot)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	log.Debug("loaded page templates", slog.String("pages", strings.Join(tmpl.Names(), ",")))

	static, err := staticFiles(cfg.Server.StaticDir)
	if err != nil {
		return err
	}

	landingCopy, err := fs.ReadFile(assets.FS, "content/landing.md")
	if err != nil {
		return fmt.Errorf("failed to read landing copy: %w", err)
	}

	authenticator, err := auth.New(ctx, auth.Config{
		Domain:       cfg.Auth.Domain,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Audience:     cfg.Auth.Audience,
		RedirectURI:  cfg.Auth.RedirectURI,
		Scopes:       cfg.Auth.Scopes,
		Discovery:    cfg.Auth.Discovery,
	})
	if err != nil {
		return err
	}

	sessionSecret, err := loadSessionSecret(cfg.Session.Secret, log)
	if err != nil {
		return err
	}
	sessionMgr := session.NewManager(sessionSecret, session.Options{
		Secure: cfg.Session.Secure,
		Dir:    cfg.Session.Dir,
	})

	apiClient := api.New(cfg.APIBaseURL(),
		api.WithTimeout(cfg.BackendTimeout()),
		api.WithLogger(log))

	go reconcileTemplates(ctx, apiClient, log)

	h := handlers.New(handlers.Config{
		API:           apiClient,
		Authenticator: authenticator,
		Sessions:      sessionMgr,
		Templates:     tmpl,
		LandingCopy:   string(landingCopy),
		PublicURL:     cfg.Server.PublicURL,
		Version:       Version,
		Logger:        log,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.New(router.Config{
			Handler: h,
			Auth:    middleware.NewAuthMiddleware(sessionMgr, log),
			Static:  static,
			Version: Version,
			Logger:  log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("address", srv.Addr), slog.String("backend", apiClient.BaseURL()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("grace", cfg.ShutdownGrace()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// loadSessionSecret picks the session secret - priority: env var > config file > random
func loadSessionSecret(configured string, log *slog.Logger) ([]byte, error) {
	if envSecret := os.Getenv("SESSION_SECRET"); envSecret != "" {
		secret, err := base64.StdEncoding.DecodeString(envSecret)
		if err == nil {
			log.Info("using session secret (sessions will persist across restarts)", slog.String("source", "environment variable"))
			return secret, nil
		}
		log.Warn("failed to decode SESSION_SECRET env var, trying config", slog.String("error", err.Error()))
	}

	if configured != "" {
		secret, err := base64.StdEncoding.DecodeString(configured)
		if err == nil {
			log.Info("using session secret (sessions will persist across restarts)", slog.String("source", "config file"))
			return secret, nil
		}
		log.Warn("failed to decode session secret from config", slog.String("error", err.Error()))
	}

	// Dev mode only
	log.Warn("no session secret configured, generating random one (sessions won't persist)")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return secret, nil
}

// staticFiles serves embedded assets unless a directory override is configured
func staticFiles(dir string) (fs.FS, error) {
	if dir != "" {
		return os.DirFS(dir), nil
	}
	static, err := fs.Sub(assets.FS, assets.StaticRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded static files: %w", err)
	}
	return static, nil
}

// reconcileTemplates warns about UI templates the backend does not know.
// It only logs; generation with an unknown id fails at the backend.
func reconcileTemplates(ctx context.Context, client *api.Client, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	backend, err := client.ListTemplates(ctx)
	if err != nil {
		log.Warn("could not list backend templates", slog.String("error", err.Error()))
		return
	}
	if missing := templates.Reconcile(templates.All(), backend); len(missing) > 0 {
		log.Warn("templates offered in the UI are unknown to the backend",
			slog.String("ids", strings.Join(missing, ",")))
	}
}
