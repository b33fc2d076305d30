package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

const snapshotCacheKey = "warlock:snapshot:cached"

// SnapshotStore retains the last observed catalog. Latest returns
// ErrSnapshotNotFound when nothing was saved yet.
type SnapshotStore interface {
	Latest(ctx context.Context) (*models.CatalogSnapshot, error)
	Save(ctx context.Context, snapshot *models.CatalogSnapshot) error
}

// SnapshotSource supplies the current catalog on demand.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*models.CatalogSnapshot, error)
}

// SnapshotStoreService fronts a primary store with an optional read-through
// cache and records store latency.
type SnapshotStoreService struct {
	primary  SnapshotStore
	cache    *CacheService
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSnapshotStoreService constructs the store service. cache may be nil.
func NewSnapshotStoreService(primary SnapshotStore, cache *CacheService, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *SnapshotStoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStoreService{primary: primary, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// Latest returns the last saved snapshot.
func (s *SnapshotStoreService) Latest(ctx context.Context) (*models.CatalogSnapshot, error) {
	var cached models.CatalogSnapshot
	if hit, err := s.cache.Get(ctx, snapshotCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	start := time.Now()
	snapshot, err := s.primary.Latest(ctx)
	s.metrics.ObserveSnapshotStore("load", time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrSnapshotNotFound) {
			s.logger.Error("failed to load snapshot", zap.Error(err))
		}
		return nil, err
	}
	_ = s.cache.Set(ctx, snapshotCacheKey, snapshot, s.cacheTTL)
	return snapshot, nil
}

// Save persists the snapshot and refreshes the cache.
func (s *SnapshotStoreService) Save(ctx context.Context, snapshot *models.CatalogSnapshot) error {
	start := time.Now()
	err := s.primary.Save(ctx, snapshot)
	s.metrics.ObserveSnapshotStore("save", time.Since(start))
	if err != nil {
		s.logger.Error("failed to save snapshot", zap.Error(err))
		return err
	}
	_ = s.cache.Set(ctx, snapshotCacheKey, snapshot, s.cacheTTL)
	return nil
}
