package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Context represents a named backend configuration (like kubectl contexts)
type Context struct {
	Backend struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout,omitempty"`
	} `yaml:"backend"`
	Rendering struct {
		Theme string `yaml:"theme"`
	} `yaml:"rendering"`
}

// Config represents the CLI configuration with multiple contexts
type Config struct {
	CurrentContext string              `yaml:"current-context"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

// NewContext returns a context for the API rooted at backendURL
func NewContext(backendURL, timeout, theme string) *Context {
	ctx := &Context{}
	ctx.Backend.URL = backendURL
	ctx.Backend.Timeout = timeout
	ctx.Rendering.Theme = theme
	return ctx
}

// DefaultConfig returns the default configuration with a single "local" context
func DefaultConfig() *Config {
	return &Config{
		CurrentContext: "local",
		Contexts: map[string]*Context{
			"local": NewContext("http://localhost:8000/api", "", "auto"),
		},
	}
}

// GetCurrentContext returns the current active context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}

	return ctx, nil
}

// SetCurrentContext sets the current active context
func (c *Config) SetCurrentContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	c.CurrentContext = name
	return nil
}

// AddContext adds or updates a context
func (c *Config) AddContext(name string, ctx *Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	c.Contexts[name] = ctx
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if name == c.CurrentContext {
		return fmt.Errorf("cannot delete current context %q", name)
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	delete(c.Contexts, name)
	return nil
}

// Validate checks the backend URL and timeout of a context
func (ctx *Context) Validate() error {
	u, err := url.Parse(ctx.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend url %q must be an absolute URL", ctx.Backend.URL)
	}
	if _, err := ctx.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout returns the per-call timeout, zero when unset
func (ctx *Context) Timeout() (time.Duration, error) {
	if ctx.Backend.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(ctx.Backend.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid backend timeout %q: %w", ctx.Backend.Timeout, err)
	}
	return d, nil
}

// Theme returns the glamour style for this context
func (ctx *Context) Theme() string {
	if ctx.Rendering.Theme == "" {
		return "auto"
	}
	return ctx.Rendering.Theme
}

// GetConfigPath returns the default path of the config file
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "cvforge", "config.yaml"), nil
}

// LoadConfig loads the configuration at path, creating it with defaults if missing
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		defaultConfig := DefaultConfig()
		if err := SaveConfig(path, defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultConfig, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure we have a valid current context
	if config.CurrentContext == "" && len(config.Contexts) > 0 {
		for name := range config.Contexts {
			config.CurrentContext = name
			break
		}
	}

	return &config, nil
}

// SaveConfig writes config to path
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
