package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
)

// CacheManager provides an interface for interacting with the Redis cache.
type CacheManager interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Claim stores key only if it is absent and reports whether this call stored it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error

	GetSessionToken(ctx context.Context, sessionID string) (string, error)
	SetSessionToken(ctx context.Context, sessionID, token string, ttl time.Duration) error
	DeleteSessionToken(ctx context.Context, sessionID string) error
}

type cacheManagerImpl struct {
	client redis.UniversalClient
	prefix string
	log    logger.Logger
}

// NewCacheManager creates a new CacheManager. Every key is namespaced under prefix.
func NewCacheManager(client redis.UniversalClient, prefix string, log logger.Logger) CacheManager {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	if prefix == "" {
		prefix = "uats"
	}
	return &cacheManagerImpl{client: client, prefix: prefix, log: log.WithComponent("redis-cache")}
}

// Get returns a not_found error for a missing key.
func (c *cacheManagerImpl) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.prefix+":"+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", errors.ErrNotFound("cache key", key)
		}
		return "", errors.ErrInternal("cache read failed").WithCause(err)
	}
	return val, nil
}

func (c *cacheManagerImpl) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+":"+key, value, ttl).Err(); err != nil {
		return errors.ErrInternal("cache write failed").WithCause(err)
	}
	return nil
}

func (c *cacheManagerImpl) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+":"+key).Err(); err != nil {
		return errors.ErrInternal("cache delete failed").WithCause(err)
	}
	return nil
}

func (c *cacheManagerImpl) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+":"+claimKey(key), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, errors.ErrInternal("cache claim failed").WithCause(err)
	}
	return ok, nil
}

func (c *cacheManagerImpl) Release(ctx context.Context, key string) error {
	return c.Delete(ctx, claimKey(key))
}

func (c *cacheManagerImpl) GetSessionToken(ctx context.Context, sessionID string) (string, error) {
	return c.Get(ctx, sessionKey(sessionID))
}

// SetSessionToken stores token until ttl elapses. A non-positive ttl stores nothing.
func (c *cacheManagerImpl) SetSessionToken(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.Set(ctx, sessionKey(sessionID), token, ttl)
}

func (c *cacheManagerImpl) DeleteSessionToken(ctx context.Context, sessionID string) error {
	return c.Delete(ctx, sessionKey(sessionID))
}

func claimKey(key string) string {
	return "idempotency:" + key
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:token:%s", sessionID)
}

//Personal.AI order the ending
