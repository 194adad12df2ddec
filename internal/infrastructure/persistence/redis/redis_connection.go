// Package redis provides Redis connection management for the shared token cache.
// A single address connects to a standalone server; several addresses form a cluster.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/pkg/logger"
)

// RedisConnection manages Redis client lifecycle and health monitoring.
type RedisConnection struct {
	config        config.RedisConfig
	client        redis.UniversalClient
	logger        logger.Logger
	isInitialized bool
}

// NewRedisConnection creates a new Redis connection manager instance.
//
// Parameters:
//   - cfg: Redis section of the application configuration
//   - log: Logger instance
//
// Returns:
//   - *RedisConnection: connection manager, not yet connected
func NewRedisConnection(cfg config.RedisConfig, log logger.Logger) *RedisConnection {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &RedisConnection{
		config: cfg,
		logger: log.WithComponent("redis"),
	}
}

// Connect establishes the connection and validates it with a ping.
//
// Returns:
//   - error: Connection establishment error if any
func (rc *RedisConnection) Connect(ctx context.Context) error {
	if rc.isInitialized {
		rc.logger.Warn(ctx, "Redis connection already initialized")
		return nil
	}
	if len(rc.config.Addresses) == 0 {
		return fmt.Errorf("redis addresses not configured")
	}

	poolSize := rc.config.PoolSize
	if poolSize == 0 {
		poolSize = 10
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        rc.config.Addresses,
		Password:     rc.config.Password,
		DB:           rc.config.DB,
		PoolSize:     poolSize,
		MinIdleConns: rc.config.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err, logger.Any("addrs", rc.config.Addresses))
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	rc.client = client
	rc.isInitialized = true
	rc.logger.Info(ctx, "Redis connection established successfully",
		logger.Any("addrs", rc.config.Addresses),
		logger.Int("pool_size", poolSize),
	)
	return nil
}

// GetClient returns the Redis client instance.
// It returns nil if connection is not initialized.
func (rc *RedisConnection) GetClient() redis.UniversalClient {
	if !rc.isInitialized {
		return nil
	}
	return rc.client
}

// HealthCheck reports connectivity, latency and pool statistics.
//
// Returns:
//   - map[string]interface{}: Health status details
//   - error: Health check error if any
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if !rc.isInitialized {
		return nil, fmt.Errorf("redis connection not initialized")
	}

	health := make(map[string]interface{})
	start := time.Now()
	err := rc.client.Ping(ctx).Err()
	health["connected"] = err == nil
	health["latency_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		health["error"] = err.Error()
		return health, err
	}

	stats := rc.client.PoolStats()
	health["total_conns"] = stats.TotalConns
	health["idle_conns"] = stats.IdleConns
	return health, nil
}

// Close gracefully closes Redis connection and releases resources.
func (rc *RedisConnection) Close() error {
	if !rc.isInitialized {
		return nil
	}
	if err := rc.client.Close(); err != nil {
		rc.logger.Error(context.Background(), "Failed to close Redis connection", err)
		return err
	}
	rc.isInitialized = false
	rc.logger.Info(context.Background(), "Redis connection closed successfully")
	return nil
}

//Personal.AI order the ending
