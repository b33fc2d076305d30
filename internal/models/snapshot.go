package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

// CatalogSnapshot is an immutable view of every offered section at one
// observation instant, keyed by section code.
type CatalogSnapshot struct {
	takenAt  time.Time
	sections map[string]Section
	codes    []string
}

// NewCatalogSnapshot builds a snapshot, rejecting empty or duplicate codes.
func NewCatalogSnapshot(takenAt time.Time, sections []Section) (*CatalogSnapshot, error) {
	snap := &CatalogSnapshot{
		takenAt:  takenAt.UTC(),
		sections: make(map[string]Section, len(sections)),
		codes:    make([]string, 0, len(sections)),
	}
	for i, section := range sections {
		code := strings.TrimSpace(section.Code)
		if code == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section at index %d has no code", i))
		}
		if _, dup := snap.sections[code]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate section code %q in snapshot", code))
		}
		section = section.clone()
		section.Code = code
		snap.sections[code] = section
		snap.codes = append(snap.codes, code)
	}
	sort.Strings(snap.codes)
	return snap, nil
}

// EmptySnapshot returns a snapshot with no sections.
func EmptySnapshot(takenAt time.Time) *CatalogSnapshot {
	snap, _ := NewCatalogSnapshot(takenAt, nil)
	return snap
}

// TakenAt returns the observation instant.
func (s *CatalogSnapshot) TakenAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.takenAt
}

// Len returns the number of sections.
func (s *CatalogSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.codes)
}

// Get looks a section up by code.
func (s *CatalogSnapshot) Get(code string) (Section, bool) {
	if s == nil {
		return Section{}, false
	}
	section, ok := s.sections[code]
	if !ok {
		return Section{}, false
	}
	return section.clone(), true
}

// Codes returns all section codes in ascending order.
func (s *CatalogSnapshot) Codes() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// Sections returns copies of all sections ordered by code.
func (s *CatalogSnapshot) Sections() []Section {
	if s == nil {
		return nil
	}
	out := make([]Section, 0, len(s.codes))
	for _, code := range s.codes {
		out = append(out, s.sections[code].clone())
	}
	return out
}

type snapshotPayload struct {
	TakenAt  time.Time `json:"taken_at"`
	Sections []Section `json:"sections"`
}

// MarshalJSON encodes the snapshot with sections ordered by code.
func (s *CatalogSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotPayload{TakenAt: s.TakenAt(), Sections: s.Sections()})
}

// UnmarshalJSON decodes a snapshot and applies the same checks as NewCatalogSnapshot.
func (s *CatalogSnapshot) UnmarshalJSON(data []byte) error {
	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	snap, err := NewCatalogSnapshot(payload.TakenAt, payload.Sections)
	if err != nil {
		return err
	}
	*s = *snap
	return nil
}
