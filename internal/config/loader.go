package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
)

// EnvPrefix prefixes every environment override, e.g. UATS_API_BASE_URL.
const EnvPrefix = "UATS"

// Loader reads the configuration and keeps the viper instance for hot reload.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
}

// NewLoader creates a loader. An explicit file path takes precedence over the search paths.
func NewLoader(log logger.Logger, file string) *Loader {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/uats/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// no default exists for the tri-state fallback flag, so its variable is bound explicitly
	_ = v.BindEnv("webauthn.placeholder_fallback")

	return &Loader{v: v, log: log.WithComponent("config")}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", constants.EnvironmentDevelopment)

	v.SetDefault("api.base_url", constants.DefaultAPIBaseURL)
	v.SetDefault("api.base_path", constants.DefaultAPIBasePath)
	v.SetDefault("api.timeout", constants.DefaultAPITimeout)
	v.SetDefault("api.sign_in_url", constants.DefaultSignInURL)

	v.SetDefault("identity.token", "")
	v.SetDefault("identity.token_endpoint", "")
	v.SetDefault("identity.token_skew", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 1)

	v.SetDefault("webauthn.authenticator", "soft")
	v.SetDefault("webauthn.soft_store_path", "")
	v.SetDefault("webauthn.origin", "http://localhost:3000")

	v.SetDefault("notifications.default_duration", constants.DefaultNotificationDuration)

	v.SetDefault("server.host", constants.DefaultServerHost)
	v.SetDefault("server.port", constants.DefaultServerPort)
	v.SetDefault("server.read_timeout", constants.DefaultServerReadTimeout)
	v.SetDefault("server.request_timeout", constants.DefaultServerRequestTimeout)
	v.SetDefault("server.shutdown_timeout", constants.DefaultShutdownTimeout)
	v.SetDefault("server.idempotency_ttl", constants.DefaultIdempotencyTTL)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.enable_pprof", false)

	v.SetDefault("log.level", string(constants.LogLevelInfo))
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
	v.SetDefault("tracing.service_name", "uats-console")
	v.SetDefault("tracing.sampling_rate", 1.0)
	v.SetDefault("tracing.insecure", true)
}

// Load reads file, environment and defaults into a validated Config.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ErrInternal("failed to read config").WithCause(err)
		}
		l.log.Debug(context.Background(), "No config file found, using defaults and environment")
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.log.Info(context.Background(), "Configuration loaded",
		logger.String("file", l.v.ConfigFileUsed()),
		logger.String("environment", cfg.App.Environment),
		logger.String("api", cfg.API.Endpoint()),
	)
	return cfg, nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrInternal("failed to unmarshal config").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.ErrInvalidRequest("invalid configuration: " + err.Error()).WithCause(err)
	}
	return &cfg, nil
}

// Watch reloads the file on change and hands every valid result to onChange.
// Invalid edits are logged and skipped.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			l.log.Warn(context.Background(), "Ignoring invalid configuration change",
				logger.String("file", e.Name), logger.Err(err))
			return
		}
		l.log.Info(context.Background(), "Configuration reloaded", logger.String("file", e.Name))
		onChange(cfg)
	})
	l.v.WatchConfig()
}

//Personal.AI order the ending
