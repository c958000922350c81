package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commerceops/backend/internal/domain/reconciliation"
	"github.com/commerceops/backend/internal/infrastructure/config"
)

// RedisRunLock implements RunLock using Redis SETNX. It is suitable for
// distributed deployments where multiple instances must not sync the same
// provider concurrently. The TTL bounds how long a lock survives a crashed
// holder.
type RedisRunLock struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisRunLock creates a Redis-backed run lock and verifies connectivity
func NewRedisRunLock(cfg config.RedisConfig, ttl time.Duration) (*RedisRunLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRunLockWithClient(client, "", ttl), nil
}

// NewRedisRunLockWithClient creates a lock with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisRunLockWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisRunLock {
	if keyPrefix == "" {
		keyPrefix = "reconciliation:"
	}
	return &RedisRunLock{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// TryAcquire takes the lock for key if it is free. SETNX with TTL is a
// single atomic operation.
func (l *RedisRunLock) TryAcquire(ctx context.Context, key string) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.keyPrefix+key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return acquired, nil
}

// Release frees the lock for key
func (l *RedisRunLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisRunLock) Close() error {
	return l.client.Close()
}

// Ensure RedisRunLock implements RunLock
var _ reconciliation.RunLock = (*RedisRunLock)(nil)
