package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/errors"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisConnection) {
	t.Helper()
	mr := miniredis.RunT(t)
	conn := NewRedisConnection(config.RedisConfig{Enabled: true, Addresses: []string{mr.Addr()}}, nil)
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { _ = conn.Close() })
	return mr, conn
}

func TestCacheManager_SessionTokens(t *testing.T) {
	mr, conn := setupRedis(t)
	cache := NewCacheManager(conn.GetClient(), "uats-test", nil)
	ctx := context.Background()

	_, err := cache.GetSessionToken(ctx, "sess_1")
	assert.True(t, errors.HasCode(err, constants.ErrCodeNotFound))

	require.NoError(t, cache.SetSessionToken(ctx, "sess_1", "tok-1", time.Minute))
	assert.True(t, mr.Exists("uats-test:session:token:sess_1"))

	got, err := cache.GetSessionToken(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	mr.FastForward(2 * time.Minute)
	_, err = cache.GetSessionToken(ctx, "sess_1")
	assert.Error(t, err)

	require.NoError(t, cache.SetSessionToken(ctx, "sess_2", "tok-2", 0))
	assert.False(t, mr.Exists("uats-test:session:token:sess_2"))
}

func TestCacheManager_Delete(t *testing.T) {
	_, conn := setupRedis(t)
	cache := NewCacheManager(conn.GetClient(), "", nil)
	ctx := context.Background()

	require.NoError(t, cache.SetSessionToken(ctx, "s", "tok", time.Minute))
	require.NoError(t, cache.DeleteSessionToken(ctx, "s"))
	_, err := cache.GetSessionToken(ctx, "s")
	assert.Error(t, err)
}

func TestRedisConnection_HealthCheck(t *testing.T) {
	mr, conn := setupRedis(t)

	health, err := conn.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, health["connected"])

	mr.Close()
	_, err = conn.HealthCheck(context.Background())
	assert.Error(t, err)
}

func TestRedisConnection_RequiresAddresses(t *testing.T) {
	conn := NewRedisConnection(config.RedisConfig{}, nil)
	assert.Error(t, conn.Connect(context.Background()))
	assert.Nil(t, conn.GetClient())
	assert.NoError(t, conn.Close())
}
