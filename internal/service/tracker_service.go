package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

// TrackerResult describes one ingest.
type TrackerResult struct {
	PreviousAt time.Time        `json:"previous_at,omitempty"`
	CurrentAt  time.Time        `json:"current_at"`
	FirstRun   bool             `json:"first_run"`
	Notified   bool             `json:"notified"`
	Changeset  models.Changeset `json:"changeset"`
}

// TrackerService polls a snapshot source and reports catalog changes.
type TrackerService struct {
	source   SnapshotSource
	store    SnapshotStore
	differ   *Differ
	notifier ChangeNotifier
	metrics  *MetricsService
	logger   *zap.Logger

	ingestMu sync.Mutex
	mu       sync.RWMutex
	last     *TrackerResult
}

// NewTrackerService constructs the tracker. source may be nil when snapshots
// are only pushed through Ingest.
func NewTrackerService(source SnapshotSource, store SnapshotStore, differ *Differ, notifier ChangeNotifier, metrics *MetricsService, logger *zap.Logger) *TrackerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if differ == nil {
		differ = NewDiffer(DiffOptions{}, logger)
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &TrackerService{
		source:   source,
		store:    store,
		differ:   differ,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Check fetches the current catalog from the source and ingests it.
func (s *TrackerService) Check(ctx context.Context) (*TrackerResult, error) {
	if s.source == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "tracker has no snapshot source")
	}
	snapshot, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, snapshot)
}

// Ingest compares snapshot with the stored one. The first snapshot is stored
// without notifying. The store is only advanced after the notifier accepted
// the changes, so a failed notification is reported again on the next poll.
func (s *TrackerService) Ingest(ctx context.Context, snapshot *models.CatalogSnapshot) (*TrackerResult, error) {
	if snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "snapshot is required")
	}
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	previous, err := s.store.Latest(ctx)
	if err != nil && !errors.Is(err, appErrors.ErrSnapshotNotFound) {
		return nil, err
	}

	result := &TrackerResult{CurrentAt: snapshot.TakenAt()}
	if previous == nil {
		s.logger.Info("no previous snapshot, saving current catalog", zap.Int("sections", snapshot.Len()))
		result.FirstRun = true
		result.Changeset = models.Changeset{Added: []models.Section{}, Removed: []models.Section{}, Modified: []models.SectionChange{}}
		if err := s.store.Save(ctx, snapshot); err != nil {
			return nil, err
		}
		s.remember(result)
		return result, nil
	}

	result.PreviousAt = previous.TakenAt()
	result.Changeset = s.differ.Diff(previous, snapshot)
	s.metrics.RecordChangeset(result.Changeset)

	if result.Changeset.IsEmpty() {
		s.logger.Info("no catalog changes detected")
		s.remember(result)
		return result, nil
	}

	s.logger.Info("catalog changes detected",
		zap.Int("added", len(result.Changeset.Added)),
		zap.Int("removed", len(result.Changeset.Removed)),
		zap.Int("modified", len(result.Changeset.Modified)))

	report := ChangeReport{Changeset: result.Changeset, PreviousAt: result.PreviousAt, CurrentAt: result.CurrentAt}
	if err := s.notifier.Notify(ctx, report); err != nil {
		s.logger.Error("failed to notify catalog changes", zap.Error(err))
		return nil, err
	}
	result.Notified = true

	if err := s.store.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	s.remember(result)
	return result, nil
}

// Run checks the source every interval until ctx is cancelled. Errors are
// logged and the loop continues.
func (s *TrackerService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 20 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Check(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("schedule check failed", zap.Error(err))
		} else {
			s.logger.Info("schedule check completed")
		}
		s.logger.Info("waiting for the next check", zap.Duration("interval", interval))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Last returns the result of the most recent successful ingest.
func (s *TrackerService) Last() (*TrackerResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	copied := *s.last
	return &copied, true
}

// Latest returns the stored snapshot.
func (s *TrackerService) Latest(ctx context.Context) (*models.CatalogSnapshot, error) {
	return s.store.Latest(ctx)
}

func (s *TrackerService) remember(result *TrackerResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *result
	s.last = &copied
}
