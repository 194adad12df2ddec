package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
	"github.com/turtacn/uats/pkg/logger"
)

// ClaimStore remembers idempotency keys.
// ClaimStore 记录已使用的幂等键。
type ClaimStore interface {
	// Claim stores key only if it is absent and reports whether this call stored it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// memoryClaims keeps keys in process when no shared cache is configured.
type memoryClaims struct {
	c *cache.Cache
}

// NewMemoryClaims creates an in-process ClaimStore.
func NewMemoryClaims() ClaimStore {
	return &memoryClaims{c: cache.New(constants.DefaultIdempotencyTTL, time.Minute)}
}

func (m *memoryClaims) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	// Add fails when the key is already present and unexpired.
	return m.c.Add(key, time.Now(), ttl) == nil, nil
}

func (m *memoryClaims) Release(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Idempotency rejects a request whose Idempotency-Key was already used within ttl with 409.
// Requests without the header pass through. A request that fails releases its key so the
// caller can retry it.
// Idempotency 拒绝在 ttl 内重复使用 Idempotency-Key 的请求（409）。
func Idempotency(store ClaimStore, ttl time.Duration, log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("idempotency")
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(constants.HeaderIdempotencyKey))
		if key == "" || store == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		isNew, err := store.Claim(ctx, key, ttl)
		if err != nil {
			// Fail open: a cache outage must not block transfers.
			log.Error(ctx, "Idempotency check failed", err, logger.String("key", key))
			c.Next()
			return
		}
		if !isNew {
			log.Warn(ctx, "Duplicate request rejected", logger.String("key", key))
			c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse(errors.ErrDuplicateRequest(key), ""))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn(ctx, "Failed to release idempotency key", logger.String("key", key), logger.Err(err))
			}
		}
	}
}

//Personal.AI order the ending
