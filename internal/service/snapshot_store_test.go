package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestSnapshotStoreServiceReadThrough(t *testing.T) {
	at := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)
	primary := &memorySnapshotStore{}
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewSnapshotStoreService(primary, cache, 30*time.Second, nil, nil)

	_, err := svc.Latest(context.Background())
	require.ErrorIs(t, err, appErrors.ErrSnapshotNotFound)

	snapshot := snapshotAt(t, at, models.Section{Code: "A1", CourseName: "Basis Data", Professor: "Dr. X"})
	require.NoError(t, svc.Save(context.Background(), snapshot))
	assert.Equal(t, 1, primary.saves)
	assert.Equal(t, 30*time.Second, repo.ttls[snapshotCacheKey])

	primary.loadErr = errors.New("primary offline")
	got, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, got.Codes())
	assert.True(t, got.TakenAt().Equal(at))
}

func TestSnapshotStoreServiceWithoutCache(t *testing.T) {
	primary := &memorySnapshotStore{}
	svc := NewSnapshotStoreService(primary, nil, 0, nil, nil)

	snapshot := snapshotAt(t, time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC), models.Section{Code: "B2", CourseName: "Jaringan"})
	require.NoError(t, svc.Save(context.Background(), snapshot))

	got, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Same(t, snapshot, got)

	primary.saveErr = errors.New("disk full")
	assert.EqualError(t, svc.Save(context.Background(), snapshot), "disk full")
}
