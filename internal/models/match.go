package models

// MatchReason explains how a criterion was resolved.
type MatchReason string

// Possible match reasons.
const (
	MatchReasonExactCode   MatchReason = "exact-code-hit"
	MatchReasonUniqueFuzzy MatchReason = "unique-fuzzy-match"
	MatchReasonFirstOfMany MatchReason = "first-of-multiple-matches"
	MatchReasonNoMatch     MatchReason = "no-match"
)

// MatchDecision is the outcome of resolving one criterion against a snapshot.
type MatchDecision struct {
	Criterion      Criterion
	Section        *Section
	CandidateCount int
	Reason         MatchReason
}

// Matched reports whether a section was selected.
func (d MatchDecision) Matched() bool {
	return d.Section != nil
}

// Ambiguous reports whether the selection was a tie-break among several candidates.
func (d MatchDecision) Ambiguous() bool {
	return d.Reason == MatchReasonFirstOfMany
}

// MatchDecisionView is the JSON projection of a MatchDecision.
type MatchDecisionView struct {
	Criterion      string      `json:"criterion"`
	DisplayName    string      `json:"display_name,omitempty"`
	Reason         MatchReason `json:"reason"`
	CandidateCount int         `json:"candidate_count"`
	Section        *Section    `json:"section,omitempty"`
}

// View projects the decision for API responses and plan files.
func (d MatchDecision) View() MatchDecisionView {
	return MatchDecisionView{
		Criterion:      d.Criterion.Label(),
		DisplayName:    d.Criterion.DisplayName,
		Reason:         d.Reason,
		CandidateCount: d.CandidateCount,
		Section:        d.Section,
	}
}
