package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cvforge", "config.yaml")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "local", config.CurrentContext)

	ctx, err := config.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", ctx.Backend.URL)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config should be written")
}

func TestLoadConfigPicksContextWhenUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`contexts:
  prod:
    backend:
      url: https://cv.example.com/api
      timeout: 90s
    rendering:
      theme: dark
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", config.CurrentContext)

	ctx, err := config.GetCurrentContext()
	require.NoError(t, err)
	timeout, err := ctx.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, timeout)
	assert.Equal(t, "dark", getTheme(config))
}

func TestLoadConfigRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contexts: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	config := DefaultConfig()
	config.AddContext("staging", NewContext("https://staging.example.com/api", "2m", "light"))
	require.NoError(t, config.SetCurrentContext("staging"))
	require.NoError(t, SaveConfig(path, config))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestContextManagement(t *testing.T) {
	config := DefaultConfig()

	assert.Error(t, config.SetCurrentContext("missing"))
	assert.Error(t, config.DeleteContext("local"), "current context cannot be deleted")
	assert.Error(t, config.DeleteContext("missing"))

	config.AddContext("other", NewContext("http://other:8000/api", "", ""))
	require.NoError(t, config.DeleteContext("other"))
	assert.NotContains(t, config.Contexts, "other")

	config.CurrentContext = ""
	_, err := config.GetCurrentContext()
	assert.Error(t, err)
	assert.Equal(t, "auto", getTheme(config))
}

func TestContextValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		timeout string
		wantErr bool
	}{
		{name: "valid", url: "http://localhost:8000/api"},
		{name: "valid with timeout", url: "https://cv.example.com/api", timeout: "30s"},
		{name: "relative url", url: "/api", wantErr: true},
		{name: "empty url", url: "", wantErr: true},
		{name: "bad timeout", url: "http://localhost:8000/api", timeout: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewContext(tt.url, tt.timeout, "").Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
