package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

// CacheRepository provides helpers around Redis interactions for JSON payloads.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL. A zero TTL keeps the key forever.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// DeleteByPattern removes cached entries matching the provided pattern.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}

	return nil
}

// Ping checks connectivity for readiness probes.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// SnapshotKey is the redis key holding the latest catalog snapshot.
const SnapshotKey = "warlock:snapshot:latest"

// RedisSnapshotStore keeps the latest snapshot in redis without expiry.
type RedisSnapshotStore struct {
	cache *CacheRepository
}

// NewRedisSnapshotStore constructs a redis-backed snapshot store.
func NewRedisSnapshotStore(cache *CacheRepository) *RedisSnapshotStore {
	return &RedisSnapshotStore{cache: cache}
}

// Latest returns the stored snapshot.
func (s *RedisSnapshotStore) Latest(ctx context.Context) (*models.CatalogSnapshot, error) {
	var snapshot models.CatalogSnapshot
	if err := s.cache.Get(ctx, SnapshotKey, &snapshot); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

// Save replaces the stored snapshot.
func (s *RedisSnapshotStore) Save(ctx context.Context, snapshot *models.CatalogSnapshot) error {
	return s.cache.Set(ctx, SnapshotKey, snapshot, 0)
}
