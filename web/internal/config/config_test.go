package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "web.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_CLIENT_ID", "from-env-expansion")

	path := writeConfig(t, `
server:
  port: 9090
backend:
  base_url: http://backend:8000
  timeout: 90s
auth:
  domain: tenant.eu.auth0.com
  client_id: ${TEST_CLIENT_ID}
  audience: https://api.cvforge.example
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.ClientID != "from-env-expansion" {
		t.Errorf("Auth.ClientID = %q, want expanded env var", cfg.Auth.ClientID)
	}
	if cfg.APIBaseURL() != "http://backend:8000/api" {
		t.Errorf("APIBaseURL() = %q", cfg.APIBaseURL())
	}
	if cfg.BackendTimeout() != 90*time.Second {
		t.Errorf("BackendTimeout() = %v", cfg.BackendTimeout())
	}
	if cfg.Auth.RedirectURI != "http://localhost:8080/callback" {
		t.Errorf("default redirect URI lost: %q", cfg.Auth.RedirectURI)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  domain: file.auth0.com
  client_id: file-client
`)
	t.Setenv("AUTH0_DOMAIN", "env.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://env-audience")
	t.Setenv("BACKEND_URL", "http://env-backend:8000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.Domain != "env.auth0.com" {
		t.Errorf("Auth.Domain = %q, want env override", cfg.Auth.Domain)
	}
	if cfg.Auth.ClientID != "file-client" {
		t.Errorf("Auth.ClientID = %q, want file value", cfg.Auth.ClientID)
	}
	if cfg.Auth.Audience != "https://env-audience" {
		t.Errorf("Auth.Audience = %q", cfg.Auth.Audience)
	}
	if cfg.Backend.BaseURL != "http://env-backend:8000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *WebServerConfig)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *WebServerConfig) {}},
		{name: "bad port", mutate: func(c *WebServerConfig) { c.Server.Port = 0 }, wantErr: true},
		{name: "relative backend", mutate: func(c *WebServerConfig) { c.Backend.BaseURL = "/api" }, wantErr: true},
		{name: "bad timeout", mutate: func(c *WebServerConfig) { c.Backend.Timeout = "soon" }, wantErr: true},
		{name: "missing domain", mutate: func(c *WebServerConfig) { c.Auth.Domain = "" }, wantErr: true},
		{name: "missing client id", mutate: func(c *WebServerConfig) { c.Auth.ClientID = "" }, wantErr: true},
		{name: "missing redirect", mutate: func(c *WebServerConfig) { c.Auth.RedirectURI = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.Domain = "tenant.auth0.com"
			cfg.Auth.ClientID = "client"
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIBaseURL(t *testing.T) {
	tests := []struct {
		base, prefix, want string
	}{
		{"http://backend:8000", "/api", "http://backend:8000/api"},
		{"http://backend:8000/", "api/", "http://backend:8000/api"},
		{"http://backend:8000", "", "http://backend:8000"},
		{"http://proxy/cv", "/api", "http://proxy/cv/api"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Backend.BaseURL = tt.base
		cfg.Backend.APIPrefix = tt.prefix
		if got := cfg.APIBaseURL(); got != tt.want {
			t.Errorf("APIBaseURL(%q, %q) = %q, want %q", tt.base, tt.prefix, got, tt.want)
		}
	}
}

func TestShutdownGraceDefault(t *testing.T) {
	cfg := Default()
	cfg.Server.ShutdownGrace = "nonsense"
	if cfg.ShutdownGrace() != 10*time.Second {
		t.Errorf("ShutdownGrace() = %v, want 10s", cfg.ShutdownGrace())
	}
}
