package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

const snapshotSchema = `CREATE TABLE IF NOT EXISTS catalog_snapshots (
    id UUID PRIMARY KEY,
    taken_at TIMESTAMPTZ NOT NULL,
    section_count INTEGER NOT NULL,
    payload JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_catalog_snapshots_taken_at ON catalog_snapshots (taken_at DESC)`

// SnapshotRepository persists catalog snapshots in PostgreSQL.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository constructs the repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// EnsureSchema creates the snapshot table when missing.
func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// Save appends a snapshot row.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *models.CatalogSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	record := models.SnapshotRecord{
		ID:           uuid.NewString(),
		TakenAt:      snapshot.TakenAt(),
		SectionCount: snapshot.Len(),
		Payload:      payload,
		CreatedAt:    time.Now().UTC(),
	}
	const query = `INSERT INTO catalog_snapshots (id, taken_at, section_count, payload, created_at)
VALUES (:id, :taken_at, :section_count, :payload, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (r *SnapshotRepository) Latest(ctx context.Context) (*models.CatalogSnapshot, error) {
	const query = `SELECT id, taken_at, section_count, payload, created_at FROM catalog_snapshots
ORDER BY taken_at DESC, created_at DESC LIMIT 1`
	var record models.SnapshotRecord
	if err := r.db.GetContext(ctx, &record, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	var snapshot models.CatalogSnapshot
	if err := json.Unmarshal(record.Payload, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", record.ID, err)
	}
	return &snapshot, nil
}

// List returns snapshot metadata, newest first.
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]models.SnapshotRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT id, taken_at, section_count, created_at FROM catalog_snapshots
ORDER BY taken_at DESC, created_at DESC LIMIT $1`
	var records []models.SnapshotRecord
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return records, nil
}

// Prune keeps the newest keep snapshots and deletes the rest.
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	const query = `DELETE FROM catalog_snapshots WHERE id NOT IN (
    SELECT id FROM catalog_snapshots ORDER BY taken_at DESC, created_at DESC LIMIT $1
)`
	res, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}
