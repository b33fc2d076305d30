package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SnapshotRecord is a persisted catalog snapshot row.
type SnapshotRecord struct {
	ID           string         `db:"id" json:"id"`
	TakenAt      time.Time      `db:"taken_at" json:"taken_at"`
	SectionCount int            `db:"section_count" json:"section_count"`
	Payload      types.JSONText `db:"payload" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
