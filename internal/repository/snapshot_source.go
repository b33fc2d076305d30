package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/noah-isme/siak-warlock/internal/models"
)

// FileSnapshotSource reads a scraped catalog from a JSON file. The file holds
// either a full snapshot object or a bare list of sections.
type FileSnapshotSource struct {
	path string
	now  func() time.Time
}

// NewFileSnapshotSource constructs a source reading path on every fetch.
func NewFileSnapshotSource(path string) *FileSnapshotSource {
	return &FileSnapshotSource{path: path, now: time.Now}
}

// Fetch reads and validates the file.
func (s *FileSnapshotSource) Fetch(ctx context.Context) (*models.CatalogSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot source %s: %w", s.path, err)
	}
	return DecodeSnapshot(raw, s.now())
}

// DecodeSnapshot parses a snapshot document; takenAt is used when the
// document carries no timestamp.
func DecodeSnapshot(raw []byte, takenAt time.Time) (*models.CatalogSnapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var sections []models.Section
		if err := json.Unmarshal(trimmed, &sections); err != nil {
			return nil, fmt.Errorf("decode sections: %w", err)
		}
		return models.NewCatalogSnapshot(takenAt, sections)
	}

	var payload struct {
		TakenAt  *time.Time       `json:"taken_at"`
		Sections []models.Section `json:"sections"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if payload.TakenAt != nil && !payload.TakenAt.IsZero() {
		takenAt = *payload.TakenAt
	}
	return models.NewCatalogSnapshot(takenAt, payload.Sections)
}
