// Package app assembles the console core: configuration, observability, the state store,
// the orchestration services and the identity source they follow.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/turtacn/uats/internal/application/service"
	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/internal/domain/models"
	domainservice "github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/internal/domain/state"
	"github.com/turtacn/uats/internal/infrastructure/apiclient"
	"github.com/turtacn/uats/internal/infrastructure/identity"
	"github.com/turtacn/uats/internal/infrastructure/monitoring"
	redisstore "github.com/turtacn/uats/internal/infrastructure/persistence/redis"
	"github.com/turtacn/uats/internal/infrastructure/softkey"
	httpapi "github.com/turtacn/uats/internal/interfaces/http"
	"github.com/turtacn/uats/internal/interfaces/http/handlers"
	"github.com/turtacn/uats/internal/interfaces/http/middleware"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/logger"
)

// Options tune how the core is assembled.
type Options struct {
	// Approve answers the software authenticator's prompt. Nil approves every prompt.
	Approve softkey.ApproveFunc
	// Registry receives the metrics. Nil creates a private registry with the Go and process collectors.
	Registry *prometheus.Registry
}

// App is the assembled console core.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Store    *state.Store
	Notifier service.NotificationService
	Errors   service.ErrorRegistry
	Assets   service.AssetService
	Profiles service.ProfileService
	WebAuthn service.WebAuthnService
	Tracker  *service.SessionTracker
	Identity *identity.Provider
	Tracing  *monitoring.TracingManager
	Metrics  *monitoring.Metrics
	Registry *prometheus.Registry
	API      *apiclient.Client

	redis   *redisstore.RedisConnection
	cache   redisstore.CacheManager
	metrics domainservice.Metrics

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds the core from cfg. Redis is connected when enabled; a failed connection is an error.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	a.Registry = opts.Registry
	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	a.Metrics = monitoring.NewMetrics(a.Registry)
	a.metrics = monitoring.NewMetricsAdapter(a.Metrics)

	tm, err := monitoring.NewTracingManager(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.Tracing = tm

	if cfg.Redis.Enabled {
		conn := redisstore.NewRedisConnection(cfg.Redis, log)
		if err := conn.Connect(ctx); err != nil {
			_ = tm.Shutdown(ctx)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = conn
		a.cache = redisstore.NewCacheManager(conn.GetClient(), "uats", log)
	}

	a.Store = state.NewStore(state.WithLogger(log))
	a.Errors = service.NewErrorRegistry(a.Store)
	a.Notifier = service.NewNotificationService(a.Store, service.NotificationOptions{
		DefaultDuration: cfg.Notifications.DefaultDuration,
	}, a.metrics, log)

	a.Identity = identity.NewProvider(domainservice.IdentitySnapshot{}, log)

	a.API = apiclient.New(apiclient.Options{
		BaseURL:        cfg.API.BaseURL,
		BasePath:       cfg.API.BasePath,
		Timeout:        cfg.API.Timeout,
		SignInURL:      cfg.API.SignInURL,
		Logger:         log,
		OnUnauthorized: a.onUnauthorized,
	})

	authenticator, err := a.newAuthenticator(opts.Approve)
	if err != nil {
		_ = a.closeInfra(ctx)
		return nil, err
	}

	deps := service.Dependencies{
		Store:    a.Store,
		Notifier: a.Notifier,
		Errors:   a.Errors,
		Metrics:  a.metrics,
		Logger:   log,
	}
	a.Assets = service.NewAssetService(deps, a.API)
	a.Profiles = service.NewProfileService(deps, a.API)
	a.WebAuthn = service.NewWebAuthnService(deps, a.API, authenticator, service.WebAuthnOptions{
		PlaceholderFallback: cfg.FallbackEnabled(),
	})
	a.Tracker = service.NewSessionTracker(deps)

	log.Info(ctx, "Console core assembled",
		logger.String("api", a.API.Endpoint()),
		logger.String("authenticator", cfg.WebAuthn.Authenticator),
		logger.Any("redis", cfg.Redis.Enabled),
	)
	return a, nil
}

func (a *App) newAuthenticator(approve softkey.ApproveFunc) (domainservice.Authenticator, error) {
	switch a.Config.WebAuthn.Authenticator {
	case "", constants.AuthenticatorNone:
		return nil, nil
	case constants.AuthenticatorSoft:
	default:
		return nil, fmt.Errorf("unknown authenticator %q", a.Config.WebAuthn.Authenticator)
	}

	store := softkey.NewMemoryStore()
	if path := a.Config.WebAuthn.SoftStorePath; path != "" {
		var err error
		if store, err = softkey.OpenStore(path); err != nil {
			return nil, err
		}
	}
	if approve == nil {
		approve = func(context.Context, string, string) error { return nil }
	}
	return softkey.New(softkey.Options{
		Origin:  a.Config.WebAuthn.Origin,
		Store:   store,
		Approve: approve,
		Logger:  a.Logger,
	})
}

// Start follows the identity provider in the background and signs in with the configured
// token, if any.
func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	if a.cancel != nil {
		a.runMu.Unlock()
		return fmt.Errorf("app already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.runMu.Unlock()

	go func() {
		defer close(a.done)
		if err := a.Tracker.Run(runCtx, a.Identity); err != nil && runCtx.Err() == nil {
			a.Logger.Error(runCtx, "Session tracker stopped", err)
		}
	}()

	if token := a.Config.Identity.Token; token != "" {
		return a.SignIn(ctx, token)
	}
	a.Identity.Set(domainservice.IdentitySnapshot{Loaded: true})
	return nil
}

// SignIn publishes the user of token. With a token endpoint configured, bearer tokens are
// minted from it for the token's session; otherwise token itself is the bearer token.
func (a *App) SignIn(ctx context.Context, token string) error {
	endpoint := a.Config.Identity.TokenEndpoint
	if endpoint == "" {
		return a.Identity.SignIn(ctx, token)
	}

	claims, err := identity.ParseToken(token)
	if err != nil {
		return err
	}
	sessionID := claims.SessionID
	if sessionID == "" {
		sessionID = claims.User.ID
	}
	opts := identity.TokenSessionOptions{
		Endpoint:   endpoint,
		Credential: token,
		Skew:       a.Config.Identity.TokenSkew,
		Metrics:    a.metrics,
		Logger:     a.Logger,
	}
	if a.cache != nil {
		opts.Cache = a.cache
	}
	a.Logger.Debug(ctx, "Minting bearer tokens from the token endpoint", logger.String("session_id", sessionID))
	return a.Identity.SignInWithSession(ctx, identity.NewTokenSession(sessionID, opts))
}

// SignOut publishes the signed-out identity.
func (a *App) SignOut(ctx context.Context) {
	a.Identity.SignOut(ctx)
}

// onUnauthorized ends the session: the backend no longer accepts its token.
func (a *App) onUnauthorized(ctx context.Context, signInURL string) {
	a.Logger.Warn(ctx, "Backend rejected the bearer token, signing out", logger.String("sign_in_url", signInURL))
	a.Identity.SignOut(ctx)
}

// AwaitToken blocks until the signed-in user's bearer token has been fetched.
// It fails when the fetch fails, when nobody is signed in, or when ctx ends.
func (a *App) AwaitToken(ctx context.Context) (string, error) {
	ready := make(chan struct{}, 1)
	unsubscribe := a.Store.Subscribe(func(models.AppState, state.Action) {
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		s := a.Store.State()
		if s.IsUserLoaded && !s.TokenLoading {
			if s.JWTToken != "" && s.User != nil {
				return s.JWTToken, nil
			}
			if msg, ok := s.APIErrors[constants.ErrorKeyJWT]; ok {
				return "", fmt.Errorf("%s", msg)
			}
			if cur := a.Identity.Current(); s.User == nil && cur.Loaded && cur.User == nil {
				return "", fmt.Errorf("%s", constants.MsgMissingUserOrToken)
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ready:
		}
	}
}

// Watch hot-reloads the log level and the default notification duration.
func (a *App) Watch(loader *config.Loader) {
	loader.Watch(func(cfg *config.Config) {
		a.Logger.SetLevel(constants.LogLevel(cfg.Log.Level))
		a.Notifier.SetDefaultDuration(cfg.Notifications.DefaultDuration)
	})
}

// NewRouter builds the console HTTP surface over the core.
func (a *App) NewRouter() *httpapi.Router {
	checkers := map[string]handlers.HealthChecker{}
	var claims middleware.ClaimStore
	if a.redis != nil {
		checkers["redis"] = a.redis
		claims = a.cache
	}

	h := httpapi.Handlers{
		Health:        handlers.NewHealthHandler(checkers, a.Logger),
		State:         handlers.NewStateHandler(a.Store, a.Logger),
		Notifications: handlers.NewNotificationHandler(a.Store, a.Notifier, a.Errors),
		Session:       handlers.NewSessionHandler(a.Store, a),
		WebAuthn:      handlers.NewWebAuthnHandler(a.Store, a.WebAuthn),
		Assets:        handlers.NewAssetHandler(a.Assets, a.Profiles, a.Errors),
	}
	return httpapi.NewRouter(a.Config, a.Logger, h, a.Metrics, a.Tracing.Tracer(), a.Registry, claims)
}

// Close stops the session tracker, pending notifications and the infrastructure.
func (a *App) Close(ctx context.Context) error {
	a.runMu.Lock()
	cancel, done := a.cancel, a.done
	a.runMu.Unlock()

	a.Identity.Close()
	if cancel != nil {
		cancel()
		<-done
	}
	a.Tracker.Close()
	a.Notifier.Close()

	return a.closeInfra(ctx)
}

func (a *App) closeInfra(ctx context.Context) error {
	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.Tracing.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

//Personal.AI order the ending
