package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := NewLoader(nil, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.Endpoint())
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/sign-in", cfg.API.SignInURL)
	assert.Equal(t, 5*time.Second, cfg.Notifications.DefaultDuration)
	assert.Equal(t, "127.0.0.1:8088", cfg.Server.Addr())
	assert.Equal(t, "soft", cfg.WebAuthn.Authenticator)
	assert.Nil(t, cfg.WebAuthn.PlaceholderFallback)
	assert.True(t, cfg.FallbackEnabled())
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoader_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "uats.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
app:
  environment: production
api:
  base_url: https://api.example.com
  timeout: 5s
notifications:
  default_duration: 2500ms
log:
  level: debug
`), 0o600))

	t.Setenv("UATS_API_BASE_PATH", "/v2")
	t.Setenv("UATS_SERVER_PORT", "9090")

	cfg, err := NewLoader(nil, file).Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "https://api.example.com/v2", cfg.API.Endpoint())
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2500*time.Millisecond, cfg.Notifications.DefaultDuration)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.FallbackEnabled(), "production never falls back unless asked")
}

func TestLoader_ExplicitFallbackOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UATS_APP_ENVIRONMENT", "production")
	t.Setenv("UATS_WEBAUTHN_PLACEHOLDER_FALLBACK", "true")

	cfg, err := NewLoader(nil, "").Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.WebAuthn.PlaceholderFallback)
	assert.True(t, cfg.FallbackEnabled())
}

func TestLoader_MissingExplicitFile(t *testing.T) {
	_, err := NewLoader(nil, filepath.Join(t.TempDir(), "absent.yaml")).Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Chdir(t.TempDir())
	valid := func() *Config {
		cfg, err := NewLoader(nil, "").Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"environment", func(c *Config) { c.App.Environment = "staging" }, "app.environment"},
		{"base url", func(c *Config) { c.API.BaseURL = "localhost" }, "api.base_url"},
		{"timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"redis", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addresses = nil }, "redis.addresses"},
		{"authenticator", func(c *Config) { c.WebAuthn.Authenticator = "usb" }, "webauthn.authenticator"},
		{"duration", func(c *Config) { c.Notifications.DefaultDuration = -time.Second }, "notifications.default_duration"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"cors origin", func(c *Config) { c.Server.CORSOrigins = []string{"localhost:3000"} }, "server.cors_origins"},
		{"cors wildcard", func(c *Config) { c.Server.CORSOrigins = []string{"https://*.example.com"} }, "server.cors_origins"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"sampling", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.SamplingRate = 2 }, "tracing.sampling_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_ValidateAllowsEmptyCORSOrigins(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := NewLoader(nil, "").Load()
	require.NoError(t, err)

	cfg.Server.CORSOrigins = nil
	assert.NoError(t, cfg.Validate())
}
