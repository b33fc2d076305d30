package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

func newSnapshotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func sampleSnapshot(t *testing.T) *models.CatalogSnapshot {
	t.Helper()
	snap, err := models.NewCatalogSnapshot(time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC), []models.Section{
		{Code: "A1", CourseName: "Basis Data", Professor: "Budi", Capacity: 40},
		{Code: "B2", CourseName: "Kalkulus", Schedule: []models.Meeting{{Day: "Senin", StartTime: "08.00", EndTime: "09.40", Room: "A6.09"}}},
	})
	require.NoError(t, err)
	return snap
}

func TestSnapshotRepositorySave(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)
	snap := sampleSnapshot(t)

	mock.ExpectExec("INSERT INTO catalog_snapshots").
		WithArgs(sqlmock.AnyArg(), snap.TakenAt(), 2, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)
	snap := sampleSnapshot(t)
	payload, err := snap.MarshalJSON()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "taken_at", "section_count", "payload", "created_at"}).
		AddRow("7b8c3a4e-0000-4000-8000-000000000001", snap.TakenAt(), 2, payload, time.Now())
	mock.ExpectQuery("SELECT id, taken_at, section_count, payload, created_at FROM catalog_snapshots").
		WillReturnRows(rows)

	got, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Codes(), got.Codes())
	section, ok := got.Get("B2")
	require.True(t, ok)
	assert.Equal(t, "A6.09", section.Schedule[0].Room)
}

func TestSnapshotRepositoryLatestEmpty(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectQuery("SELECT id, taken_at").WillReturnError(sql.ErrNoRows)

	_, err := repo.Latest(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrSnapshotNotFound))
}

func TestSnapshotRepositoryListAndPrune(t *testing.T) {
	db, mock, cleanup := newSnapshotRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "taken_at", "section_count", "created_at"}).
		AddRow("id-2", time.Now(), 10, time.Now()).
		AddRow("id-1", time.Now().Add(-time.Hour), 9, time.Now().Add(-time.Hour))
	mock.ExpectQuery("SELECT id, taken_at, section_count, created_at FROM catalog_snapshots").
		WithArgs(5).
		WillReturnRows(rows)
	mock.ExpectExec("DELETE FROM catalog_snapshots").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	records, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id-2", records[0].ID)
	assert.Equal(t, 10, records[0].SectionCount)

	deleted, err := repo.Prune(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
