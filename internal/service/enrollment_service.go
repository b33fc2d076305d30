package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
)

// SelectionSink performs the enrollment action for a matched decision.
type SelectionSink interface {
	Select(ctx context.Context, decision models.MatchDecision) error
}

// EnrollmentReport summarises one matching pass.
type EnrollmentReport struct {
	TakenAt   time.Time              `json:"taken_at"`
	Decisions []models.MatchDecision `json:"-"`
	Selected  int                    `json:"selected"`
	Ambiguous int                    `json:"ambiguous"`
	Missing   int                    `json:"missing"`
}

// AllMatched reports whether every criterion resolved to a section.
func (r *EnrollmentReport) AllMatched() bool {
	return r.Missing == 0
}

// Views projects the decisions for JSON output.
func (r *EnrollmentReport) Views() []models.MatchDecisionView {
	views := make([]models.MatchDecisionView, 0, len(r.Decisions))
	for _, d := range r.Decisions {
		views = append(views, d.View())
	}
	return views
}

// WarOptions configures the repeat-until-matched loop.
type WarOptions struct {
	Interval      time.Duration
	RetryNotFound bool
}

// EnrollmentService resolves course targets and forwards selections.
type EnrollmentService struct {
	matcher *Matcher
	sink    SelectionSink
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEnrollmentService constructs the service. sink may be nil for dry runs.
func NewEnrollmentService(matcher *Matcher, sink SelectionSink, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if matcher == nil {
		matcher = NewMatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{matcher: matcher, sink: sink, metrics: metrics, logger: logger}
}

// Resolve matches criteria against the snapshot and logs each decision.
func (s *EnrollmentService) Resolve(criteria models.CriterionSet, snapshot *models.CatalogSnapshot) *EnrollmentReport {
	decisions := s.matcher.Resolve(criteria, snapshot)
	s.metrics.RecordMatchDecisions(decisions)

	report := &EnrollmentReport{TakenAt: snapshot.TakenAt(), Decisions: decisions}
	for _, d := range decisions {
		label := zap.String("criterion", d.Criterion.Label())
		switch d.Reason {
		case models.MatchReasonNoMatch:
			report.Missing++
			s.logger.Error("course not found", label)
		case models.MatchReasonFirstOfMany:
			report.Selected++
			report.Ambiguous++
			s.logger.Warn("multiple sections match, selected the first",
				label,
				zap.String("code", d.Section.Code),
				zap.Int("candidate_count", d.CandidateCount))
		default:
			report.Selected++
			s.logger.Info("section selected",
				label,
				zap.String("code", d.Section.Code),
				zap.String("reason", string(d.Reason)))
		}
	}
	return report
}

// Plan resolves the criteria and forwards every matched decision to the sink.
// Sink errors are returned unchanged.
func (s *EnrollmentService) Plan(ctx context.Context, criteria models.CriterionSet, snapshot *models.CatalogSnapshot) (*EnrollmentReport, error) {
	report := s.Resolve(criteria, snapshot)
	if s.sink == nil {
		return report, nil
	}
	for _, d := range report.Decisions {
		if !d.Matched() {
			continue
		}
		if err := s.sink.Select(ctx, d); err != nil {
			return report, err
		}
	}
	return report, nil
}

// War fetches and plans every interval until a pass succeeds. With
// RetryNotFound a pass only succeeds once every criterion matched.
func (s *EnrollmentService) War(ctx context.Context, criteria models.CriterionSet, source SnapshotSource, opts WarOptions) (*EnrollmentReport, error) {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		report, err := s.attempt(ctx, criteria, source)
		switch {
		case err != nil:
			s.logger.Error("enrollment attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		case !opts.RetryNotFound || report.AllMatched():
			s.logger.Info("enrollment plan completed",
				zap.Int("attempt", attempt),
				zap.Int("selected", report.Selected),
				zap.Int("missing", report.Missing))
			return report, nil
		default:
			s.logger.Warn("some courses not found yet, retrying",
				zap.Int("attempt", attempt),
				zap.Int("missing", report.Missing),
				zap.Duration("interval", opts.Interval))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *EnrollmentService) attempt(ctx context.Context, criteria models.CriterionSet, source SnapshotSource) (*EnrollmentReport, error) {
	snapshot, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.Plan(ctx, criteria, snapshot)
}

// JSONLinesSink writes one JSON object per selected section.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink constructs a sink writing to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

// Select writes the decision.
func (s *JSONLinesSink) Select(ctx context.Context, decision models.MatchDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(decision.View())
}
