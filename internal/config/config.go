package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/uats/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	API           APIConfig           `mapstructure:"api"`
	Identity      IdentityConfig      `mapstructure:"identity"`
	Redis         RedisConfig         `mapstructure:"redis"`
	WebAuthn      WebAuthnConfig      `mapstructure:"webauthn"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// IsDevelopment reports whether development-only behavior may be enabled.
func (c AppConfig) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == constants.EnvironmentDevelopment
}

// APIConfig locates the backend REST API.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	BasePath  string        `mapstructure:"base_path"`
	Timeout   time.Duration `mapstructure:"timeout"`
	SignInURL string        `mapstructure:"sign_in_url"`
}

// Endpoint joins the base URL and base path.
func (c APIConfig) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(c.BasePath, "/")
}

// IdentityConfig selects where the signed-in user and bearer token come from.
// Token is a fixed token; TokenEndpoint is polled for fresh ones.
type IdentityConfig struct {
	Token         string        `mapstructure:"token"`
	TokenEndpoint string        `mapstructure:"token_endpoint"`
	TokenSkew     time.Duration `mapstructure:"token_skew"`
}

type RedisConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Addresses    []string `mapstructure:"addresses"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
	PoolSize     int      `mapstructure:"pool_size"`
	MinIdleConns int      `mapstructure:"min_idle_conns"`
}

type WebAuthnConfig struct {
	// Authenticator is "soft" for the software key or "none" when no authenticator is available.
	Authenticator       string `mapstructure:"authenticator"`
	SoftStorePath       string `mapstructure:"soft_store_path"`
	Origin              string `mapstructure:"origin"`
	PlaceholderFallback *bool  `mapstructure:"placeholder_fallback"`
}

// FallbackEnabled resolves the placeholder fallback: explicit setting first, else development only.
func (c *Config) FallbackEnabled() bool {
	if c.WebAuthn.PlaceholderFallback != nil {
		return *c.WebAuthn.PlaceholderFallback
	}
	return c.App.IsDevelopment()
}

type NotificationsConfig struct {
	DefaultDuration time.Duration `mapstructure:"default_duration"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	IdempotencyTTL  time.Duration `mapstructure:"idempotency_ttl"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	EnablePprof     bool          `mapstructure:"enable_pprof"`
}

// Addr is the listen address of the console server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
	Insecure     bool    `mapstructure:"insecure"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case constants.EnvironmentDevelopment, constants.EnvironmentProduction:
	default:
		return fmt.Errorf("app.environment must be %q or %q, got %q",
			constants.EnvironmentDevelopment, constants.EnvironmentProduction, c.App.Environment)
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if c.Identity.TokenSkew < 0 {
		return fmt.Errorf("identity.token_skew must not be negative")
	}

	if c.Redis.Enabled && len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("redis.addresses is required when redis is enabled")
	}

	switch c.WebAuthn.Authenticator {
	case constants.AuthenticatorSoft, constants.AuthenticatorNone:
	default:
		return fmt.Errorf("webauthn.authenticator must be soft or none, got %q", c.WebAuthn.Authenticator)
	}

	if c.Notifications.DefaultDuration < 0 {
		return fmt.Errorf("notifications.default_duration must not be negative")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			continue
		}
		if strings.Contains(origin, "*") || !(strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")) {
			return fmt.Errorf("server.cors_origins entry must be \"*\" or an http(s) origin, got %q", origin)
		}
	}

	switch constants.LogLevel(strings.ToLower(c.Log.Level)) {
	case constants.LogLevelDebug, constants.LogLevelInfo, constants.LogLevelWarn, constants.LogLevelError, constants.LogLevelFatal:
	default:
		return fmt.Errorf("log.level is invalid: %q", c.Log.Level)
	}

	if c.Tracing.Enabled {
		if c.Tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when tracing is enabled")
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return fmt.Errorf("tracing.sampling_rate must be within [0, 1]")
		}
	}
	return nil
}

//Personal.AI order the ending
