package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sigasig-engine/pkg/errors"
)

// resultKeyPrefix namespaces schedule results in the shared Redis instance.
const resultKeyPrefix = "sigasig:schedule:"

// CacheRepository provides Redis helpers for the shared result cache layer.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached result for a fingerprint.
func (r *CacheRepository) Get(ctx context.Context, fingerprint string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, resultKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", fingerprint, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cached result %s: %w", fingerprint, err)
	}

	return nil
}

// Set marshals the result and stores it under the fingerprint with a TTL.
func (r *CacheRepository) Set(ctx context.Context, fingerprint string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", fingerprint, err)
	}

	if err := r.client.Set(ctx, resultKeyPrefix+fingerprint, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", fingerprint, err)
	}

	return nil
}

// Clear removes every cached result.
func (r *CacheRepository) Clear(ctx context.Context) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, resultKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
