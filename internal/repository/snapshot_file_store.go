package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
	"github.com/noah-isme/siak-warlock/pkg/storage"
)

const (
	defaultSnapshotFile = "latest_snapshot.json"
	snapshotHistoryDir  = "history"
)

// FileStorage is the subset of storage.LocalStorage used for snapshots.
type FileStorage interface {
	Save(filename string, data []byte) (string, error)
	Read(filename string) ([]byte, error)
	CleanupOlderThan(dir string, ttl time.Duration) ([]string, error)
}

// SnapshotFileStore keeps the latest snapshot as a JSON file and optionally
// archives every saved snapshot under history/.
type SnapshotFileStore struct {
	storage  FileStorage
	filename string
	archive  bool
}

// NewSnapshotFileStore constructs a file-backed snapshot store.
func NewSnapshotFileStore(storage FileStorage, filename string, archive bool) *SnapshotFileStore {
	if filename == "" {
		filename = defaultSnapshotFile
	}
	return &SnapshotFileStore{storage: storage, filename: filename, archive: archive}
}

// Latest reads the last saved snapshot.
func (s *SnapshotFileStore) Latest(ctx context.Context) (*models.CatalogSnapshot, error) {
	raw, err := s.storage.Read(s.filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, appErrors.ErrSnapshotNotFound
		}
		return nil, err
	}
	var snapshot models.CatalogSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot file %s: %w", s.filename, err)
	}
	return &snapshot, nil
}

// Save replaces the latest snapshot file.
func (s *SnapshotFileStore) Save(ctx context.Context, snapshot *models.CatalogSnapshot) error {
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if s.archive {
		name := path.Join(snapshotHistoryDir, snapshot.TakenAt().Format("20060102T150405Z")+".json")
		if _, err := s.storage.Save(name, raw); err != nil {
			return err
		}
	}
	_, err = s.storage.Save(s.filename, raw)
	return err
}

// PruneHistory removes archived snapshots older than ttl.
func (s *SnapshotFileStore) PruneHistory(ttl time.Duration) ([]string, error) {
	if !s.archive {
		return nil, nil
	}
	return s.storage.CleanupOlderThan(snapshotHistoryDir, ttl)
}
