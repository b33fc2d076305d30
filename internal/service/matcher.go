package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/siak-warlock/internal/models"
	"github.com/noah-isme/siak-warlock/pkg/textfold"
)

// Matcher resolves criteria against a catalog snapshot. It performs no I/O and
// never mutates its inputs, so a single value can be shared between callers.
type Matcher struct{}

// NewMatcher constructs a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Resolve returns one decision per criterion, in criterion order.
func (m *Matcher) Resolve(criteria models.CriterionSet, snapshot *models.CatalogSnapshot) []models.MatchDecision {
	list := criteria.Criteria()
	decisions := make([]models.MatchDecision, 0, len(list))
	sections := snapshot.Sections()
	for _, criterion := range list {
		decisions = append(decisions, m.resolveOne(criterion, snapshot, sections))
	}
	return decisions
}

func (m *Matcher) resolveOne(criterion models.Criterion, snapshot *models.CatalogSnapshot, sections []models.Section) models.MatchDecision {
	decision := models.MatchDecision{Criterion: criterion, Reason: models.MatchReasonNoMatch}

	if criterion.ExactCode.Present {
		if section, ok := snapshot.Get(criterion.ExactCode.Value); ok {
			decision.Section = &section
			decision.CandidateCount = 1
			decision.Reason = models.MatchReasonExactCode
		}
		return decision
	}

	filter := newFuzzyFilter(criterion)
	survivors := make([]models.Section, 0)
	for _, section := range sections {
		if filter.accepts(section) {
			survivors = append(survivors, section)
		}
	}

	decision.CandidateCount = len(survivors)
	switch len(survivors) {
	case 0:
		return decision
	case 1:
		decision.Reason = models.MatchReasonUniqueFuzzy
	default:
		sort.SliceStable(survivors, func(i, j int) bool {
			if survivors[i].CourseName != survivors[j].CourseName {
				return survivors[i].CourseName < survivors[j].CourseName
			}
			return survivors[i].Code < survivors[j].Code
		})
		decision.Reason = models.MatchReasonFirstOfMany
	}
	selected := survivors[0]
	decision.Section = &selected
	return decision
}

// fuzzyFilter holds the folded fragments of a criterion; absent fragments are wildcards.
type fuzzyFilter struct {
	course    string
	professor string
	time      string
	hasCourse bool
	hasProf   bool
	hasTime   bool
}

func newFuzzyFilter(c models.Criterion) fuzzyFilter {
	return fuzzyFilter{
		course:    textfold.Fold(c.CourseName.Value),
		professor: textfold.Fold(c.Professor.Value),
		time:      textfold.Fold(c.Time.Value),
		hasCourse: c.CourseName.Present,
		hasProf:   c.Professor.Present,
		hasTime:   c.Time.Present,
	}
}

func (f fuzzyFilter) accepts(section models.Section) bool {
	if f.hasCourse && !containsFolded(section.CourseName, f.course) {
		return false
	}
	if f.hasProf && !containsFolded(section.Professor, f.professor) {
		return false
	}
	if f.hasTime && !f.matchesAnyMeeting(section.Schedule) {
		return false
	}
	return true
}

func (f fuzzyFilter) matchesAnyMeeting(meetings []models.Meeting) bool {
	for _, meeting := range meetings {
		if containsFolded(meeting.TimeText(), f.time) {
			return true
		}
	}
	return false
}

func containsFolded(haystack, foldedNeedle string) bool {
	return strings.Contains(textfold.Fold(haystack), foldedNeedle)
}
