package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
)

// TokenCache is the shared L2 store of minted session tokens.
// TokenCache 是已签发会话令牌的共享二级缓存。
type TokenCache interface {
	GetSessionToken(ctx context.Context, sessionID string) (string, error)
	SetSessionToken(ctx context.Context, sessionID, token string, ttl time.Duration) error
	DeleteSessionToken(ctx context.Context, sessionID string) error
}

// TokenSessionOptions configures a TokenSession.
type TokenSessionOptions struct {
	// Endpoint is the identity provider's token URL.
	Endpoint string
	// Credential authenticates the session against Endpoint. It is sent as a bearer token.
	Credential string
	// Skew is subtracted from a token's expiry before it is cached.
	Skew time.Duration
	// MaxElapsed bounds the retries of one fetch.
	MaxElapsed time.Duration

	HTTPClient *http.Client
	Cache      TokenCache
	Metrics    service.Metrics
	Logger     logger.Logger
}

// TokenSession mints bearer tokens from an identity provider's token endpoint.
// Tokens are cached in process until shortly before they expire and, when a
// TokenCache is configured, shared through it. Concurrent requests share one fetch.
// TokenSession 从身份提供者的令牌端点获取持有者令牌。
type TokenSession struct {
	id   string
	opts TokenSessionOptions
	l1   *cache.Cache
	sf   singleflight.Group
	log  logger.Logger
}

// NewTokenSession creates a TokenSession for the session id.
func NewTokenSession(id string, opts TokenSessionOptions) *TokenSession {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if opts.Metrics == nil {
		opts.Metrics = service.NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoopLogger()
	}
	if opts.MaxElapsed <= 0 {
		opts.MaxElapsed = 10 * time.Second
	}
	return &TokenSession{
		id:   id,
		opts: opts,
		l1:   cache.New(cache.NoExpiration, 5*time.Minute),
		log:  opts.Logger.WithComponent("token-session"),
	}
}

// ID implements service.Session.
func (s *TokenSession) ID() string {
	return s.id
}

// Token implements service.Session.
func (s *TokenSession) Token(ctx context.Context) (string, error) {
	if v, found := s.l1.Get(s.id); found {
		s.opts.Metrics.RecordCacheAccess("token_l1", true)
		return v.(string), nil
	}
	s.opts.Metrics.RecordCacheAccess("token_l1", false)

	v, err, shared := s.sf.Do(s.id, func() (interface{}, error) {
		if token, ok := s.fromL2(ctx); ok {
			return token, nil
		}
		token, err := s.fetch(ctx)
		if err != nil {
			return "", err
		}
		s.store(ctx, token)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		s.log.Debug(ctx, "Token fetch shared with a concurrent caller", logger.String("session_id", s.id))
	}
	return v.(string), nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (s *TokenSession) Invalidate(ctx context.Context) {
	s.l1.Delete(s.id)
	if s.opts.Cache != nil {
		if err := s.opts.Cache.DeleteSessionToken(ctx, s.id); err != nil {
			s.log.Warn(ctx, "Failed to drop shared session token", logger.Err(err))
		}
	}
}

func (s *TokenSession) fromL2(ctx context.Context) (string, bool) {
	if s.opts.Cache == nil {
		return "", false
	}
	token, err := s.opts.Cache.GetSessionToken(ctx, s.id)
	if err != nil || token == "" {
		if err != nil && !errors.HasCode(err, constants.ErrCodeNotFound) {
			s.log.Warn(ctx, "Shared token cache unavailable", logger.Err(err))
		}
		s.opts.Metrics.RecordCacheAccess("token_l2", false)
		return "", false
	}
	s.opts.Metrics.RecordCacheAccess("token_l2", true)
	if ttl := s.ttl(token); ttl > 0 {
		s.l1.Set(s.id, token, ttl)
	}
	return token, true
}

func (s *TokenSession) store(ctx context.Context, token string) {
	ttl := s.ttl(token)
	if ttl <= 0 {
		return
	}
	s.l1.Set(s.id, token, ttl)
	if s.opts.Cache != nil {
		if err := s.opts.Cache.SetSessionToken(ctx, s.id, token, ttl); err != nil {
			s.log.Warn(ctx, "Failed to share session token", logger.Err(err))
		}
	}
}

// ttl is how long token may be served from cache. Tokens without a readable expiry are not cached.
func (s *TokenSession) ttl(token string) time.Duration {
	claims, err := ParseToken(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return 0
	}
	return time.Until(claims.ExpiresAt) - s.opts.Skew
}

type tokenRequest struct {
	SessionID string `json:"session_id"`
}

type tokenResponse struct {
	JWT   string `json:"jwt"`
	Token string `json:"token"`
}

// fetch asks the endpoint for a token, retrying transport failures and 5xx answers.
func (s *TokenSession) fetch(ctx context.Context) (string, error) {
	var token string
	operation := func() error {
		t, err := s.fetchOnce(ctx)
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		token = t
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = s.opts.MaxElapsed

	err := backoff.RetryNotify(operation, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		s.log.Warn(ctx, "Token endpoint failed, retrying",
			logger.Err(err),
			logger.Duration("next", next),
		)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func retryable(err error) bool {
	if errors.IsTransport(err) {
		return true
	}
	uErr, ok := errors.AsUATSError(err)
	if !ok {
		return false
	}
	status, _ := uErr.Metadata()["status"].(int)
	return status >= http.StatusInternalServerError
}

func (s *TokenSession) fetchOnce(ctx context.Context) (string, error) {
	body, err := json.Marshal(tokenRequest{SessionID: s.id})
	if err != nil {
		return "", errors.ErrInternal("encode token request").WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.ErrInvalidRequest("invalid token endpoint").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.opts.Credential != "" {
		req.Header.Set("Authorization", constants.BearerPrefix+s.opts.Credential)
	}

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return "", errors.ErrTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.ErrTransport(err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return "", errors.ErrUnauthorized("")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.ErrBackend(resp.StatusCode, "")
	}

	var out tokenResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		// Some providers answer with the bare token.
		if t := strings.TrimSpace(string(raw)); t != "" && !strings.HasPrefix(t, "{") {
			return t, nil
		}
		return "", errors.ErrBackend(resp.StatusCode, "Malformed token response").WithCause(err)
	}
	if out.JWT != "" {
		return out.JWT, nil
	}
	if out.Token != "" {
		return out.Token, nil
	}
	return "", errors.ErrBackend(resp.StatusCode, "Token endpoint returned no token")
}

var _ service.Session = (*TokenSession)(nil)
