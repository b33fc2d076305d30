package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
)

func TestNewCatalogSnapshotRejectsDuplicateCodes(t *testing.T) {
	_, err := NewCatalogSnapshot(time.Now(), []Section{{Code: "A1"}, {Code: " A1 "}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "duplicate section code")
}

func TestNewCatalogSnapshotRejectsBlankCode(t *testing.T) {
	_, err := NewCatalogSnapshot(time.Now(), []Section{{Code: "  "}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCatalogSnapshotIsImmutable(t *testing.T) {
	input := []Section{{Code: "B", Schedule: []Meeting{{Day: "Senin", Room: "R1"}}}, {Code: "A"}}
	snap, err := NewCatalogSnapshot(time.Now(), input)
	require.NoError(t, err)

	input[0].Schedule[0].Room = "changed"
	got, ok := snap.Get("B")
	require.True(t, ok)
	assert.Equal(t, "R1", got.Schedule[0].Room)

	got.Schedule[0].Room = "changed again"
	again, _ := snap.Get("B")
	assert.Equal(t, "R1", again.Schedule[0].Room)

	assert.Equal(t, []string{"A", "B"}, snap.Codes())
}

func TestCatalogSnapshotNilIsEmpty(t *testing.T) {
	var snap *CatalogSnapshot
	assert.Equal(t, 0, snap.Len())
	assert.Nil(t, snap.Codes())
	_, ok := snap.Get("A")
	assert.False(t, ok)
}

func TestCatalogSnapshotJSON(t *testing.T) {
	takenAt := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)
	snap, err := NewCatalogSnapshot(takenAt, []Section{
		{Code: "B", CourseName: "Basis Data", Capacity: 40},
		{Code: "A", CourseName: "Aljabar", Schedule: []Meeting{{Day: "Senin", StartTime: "08.00", EndTime: "09.40", Room: "A6.09"}}},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded CatalogSnapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, takenAt, decoded.TakenAt())
	assert.Equal(t, snap.Sections(), decoded.Sections())

	err = json.Unmarshal([]byte(`{"taken_at":"2025-08-01T00:00:00Z","sections":[{"code":"A"},{"code":"A"}]}`), &decoded)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSectionTexts(t *testing.T) {
	section := Section{Schedule: []Meeting{
		{Day: "Rabu", StartTime: "10.00", EndTime: "11.40", Room: "B"},
		{Day: "Kamis", StartTime: "08.00", EndTime: "09.40"},
	}}
	assert.Equal(t, "Kamis, 08.00-09.40; Rabu, 10.00-11.40", section.ScheduleText())
	assert.Equal(t, "-; B", section.LocationText())

	swapped := Section{Schedule: []Meeting{section.Schedule[1], section.Schedule[0]}}
	assert.True(t, section.SameSlots(swapped))
	assert.True(t, section.SameRooms(swapped))
}

func TestCriterionValidate(t *testing.T) {
	assert.NoError(t, Criterion{ExactCode: Some("A1")}.Validate())
	assert.NoError(t, Criterion{CourseName: Some("cs")}.Validate())

	err := Criterion{CourseName: Some("   "), Professor: Some("john")}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCriterionValidateRejectsFragmentsThatFoldToNothing(t *testing.T) {
	cases := map[string]Criterion{
		"zero width course":  {CourseName: Some("\u200b")},
		"soft hyphen course": {CourseName: Some("\u00ad\u200b")},
		"empty present code": {ExactCode: Fragment{Present: true, Value: " "}},
		"empty present name": {CourseName: Fragment{Present: true}},
		"blank professor":    {CourseName: Some("cs"), Professor: Some("\u200b")},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestMatchDecisionView(t *testing.T) {
	section := Section{Code: "A1"}
	view := MatchDecision{
		Criterion:      Criterion{CourseName: Some("cs"), DisplayName: "intro"},
		Section:        &section,
		CandidateCount: 1,
		Reason:         MatchReasonUniqueFuzzy,
	}.View()
	assert.Equal(t, "[intro] Course: cs", view.Criterion)
	assert.Equal(t, "A1", view.Section.Code)
}
