package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

// WebServerConfig represents the web server configuration
type WebServerConfig struct {
	Server  HTTPServer    `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPServer holds HTTP server configuration
type HTTPServer struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	PublicURL     string `yaml:"public_url"`     // external origin, e.g. https://cv.example.com
	StaticDir     string `yaml:"static_dir"`     // overrides embedded assets when set
	ShutdownGrace string `yaml:"shutdown_grace"` // duration, e.g. "10s"
}

// BackendConfig locates the generation backend
type BackendConfig struct {
	BaseURL   string `yaml:"base_url"`   // backend origin, e.g. http://backend:8000
	APIPrefix string `yaml:"api_prefix"` // reverse-proxy path prefix
	Timeout   string `yaml:"timeout"`    // empty means no client timeout
}

// AuthConfig holds identity provider settings
type AuthConfig struct {
	Domain       string   `yaml:"domain"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Audience     string   `yaml:"audience"`
	RedirectURI  string   `yaml:"redirect_uri"`
	Scopes       []string `yaml:"scopes"`
	Discovery    bool     `yaml:"discovery"`
}

// SessionConfig holds session configuration
type SessionConfig struct {
	Secret string `yaml:"secret"` // 32-byte base64-encoded
	Secure bool   `yaml:"secure"` // set on HTTPS deployments
	Dir    string `yaml:"dir"`    // server-side session files; empty means the OS temp dir
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfigPaths defines the default locations to search for web configuration files
var DefaultConfigPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./configs/web.yaml",
	"./configs/web.yml",
	"/etc/cvforge/config.yaml",
	"/etc/cvforge/config.yml",
}

// Default returns the configuration used when no file is present
func Default() *WebServerConfig {
	return &WebServerConfig{
		Server: HTTPServer{
			Host:          "",
			Port:          8080,
			PublicURL:     "http://localhost:8080",
			ShutdownGrace: "10s",
		},
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8000",
			APIPrefix: "/api",
		},
		Auth: AuthConfig{
			RedirectURI: "http://localhost:8080/callback",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads the web server configuration from the specified file or default locations
func Load(configPath string) (*WebServerConfig, error) {
	config := Default()

	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(expandEnvVars(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(config, os.Getenv)

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnv lets environment variables take precedence over the file
func applyEnv(config *WebServerConfig, getenv func(string) string) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"BACKEND_URL", &config.Backend.BaseURL},
		{"AUTH0_DOMAIN", &config.Auth.Domain},
		{"AUTH0_CLIENT_ID", &config.Auth.ClientID},
		{"AUTH0_CLIENT_SECRET", &config.Auth.ClientSecret},
		{"AUTH0_AUDIENCE", &config.Auth.Audience},
		{"AUTH0_REDIRECT_URI", &config.Auth.RedirectURI},
		{"PUBLIC_URL", &config.Server.PublicURL},
		{"LOG_LEVEL", &config.Logging.Level},
	}
	for _, o := range overrides {
		if v := getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

// APIBaseURL joins the backend origin and the API prefix
func (c *WebServerConfig) APIBaseURL() string {
	prefix := "/" + strings.Trim(c.Backend.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	return strings.TrimRight(c.Backend.BaseURL, "/") + prefix
}

// BackendTimeout parses backend.timeout; zero means none
func (c *WebServerConfig) BackendTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Backend.Timeout)
	return d
}

// ShutdownGrace parses server.shutdown_grace, defaulting to 10s
func (c *WebServerConfig) ShutdownGrace() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownGrace)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Addr returns the listen address
func (c *WebServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// findConfigFile searches for a configuration file in default locations
func findConfigFile() string {
	for _, path := range DefaultConfigPaths {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// validate performs basic validation on the web configuration
func validate(config *WebServerConfig) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	u, err := url.Parse(config.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute URL, got %q", config.Backend.BaseURL)
	}

	if config.Backend.Timeout != "" {
		if _, err := time.ParseDuration(config.Backend.Timeout); err != nil {
			return fmt.Errorf("backend.timeout: %w", err)
		}
	}

	if config.Auth.Domain == "" {
		return fmt.Errorf("auth.domain cannot be empty (or set AUTH0_DOMAIN)")
	}
	if config.Auth.ClientID == "" {
		return fmt.Errorf("auth.client_id cannot be empty (or set AUTH0_CLIENT_ID)")
	}
	if config.Auth.RedirectURI == "" {
		return fmt.Errorf("auth.redirect_uri cannot be empty")
	}

	return nil
}
