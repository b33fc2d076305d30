package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/internal/service"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeTracker struct {
	latest   *models.CatalogSnapshot
	ingested *models.CatalogSnapshot
	result   *service.TrackerResult
	last     *service.TrackerResult
	err      error
}

func (f *fakeTracker) Ingest(ctx context.Context, snapshot *models.CatalogSnapshot) (*service.TrackerResult, error) {
	f.ingested = snapshot
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &service.TrackerResult{CurrentAt: snapshot.TakenAt(), FirstRun: true}, nil
}

func (f *fakeTracker) Latest(ctx context.Context) (*models.CatalogSnapshot, error) {
	if f.latest == nil {
		return nil, appErrors.ErrSnapshotNotFound
	}
	return f.latest, nil
}

func (f *fakeTracker) Last() (*service.TrackerResult, bool) {
	return f.last, f.last != nil
}

func mustSnapshot(sections ...models.Section) *models.CatalogSnapshot {
	snap, err := models.NewCatalogSnapshot(time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC), sections)
	if err != nil {
		panic(err)
	}
	return snap
}
