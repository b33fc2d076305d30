package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/siak-warlock/internal/models"
)

func snapshotAt(t *testing.T, at time.Time, sections ...models.Section) *models.CatalogSnapshot {
	t.Helper()
	snap, err := models.NewCatalogSnapshot(at, sections)
	require.NoError(t, err)
	return snap
}

func TestDifferProfessorChange(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, zap.NewNop())
	prev := snapshotAt(t, time.Now(), models.Section{Code: "A1", CourseName: "CS 101", Professor: "John Doe"})
	curr := snapshotAt(t, time.Now(), models.Section{Code: "A1", CourseName: "CS 101", Professor: "Jane Roe"})

	cs := differ.Diff(prev, curr)

	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Removed)
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "A1", cs.Modified[0].Code)
	assert.Equal(t, []models.FieldDiff{{Field: models.FieldProfessor, OldValue: "John Doe", NewValue: "Jane Roe"}}, cs.Modified[0].Diffs)
}

func TestDifferIdenticalSnapshotsYieldEmptyChangeset(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, nil)
	snap := snapshotAt(t, time.Now(), introSections()...)

	cs := differ.Diff(snap, snap)

	assert.True(t, cs.IsEmpty())
	assert.NotNil(t, cs.Added)
	assert.NotNil(t, cs.Removed)
	assert.NotNil(t, cs.Modified)
}

func TestDifferScheduleOrderInvariance(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, nil)
	mon := models.Meeting{Day: "Senin", StartTime: "08.00", EndTime: "09.40", Room: "A1"}
	thu := models.Meeting{Day: "Kamis", StartTime: "10.00", EndTime: "11.40", Room: "B2"}
	prev := snapshotAt(t, time.Now(), models.Section{Code: "X", Schedule: []models.Meeting{mon, thu}})
	curr := snapshotAt(t, time.Now(), models.Section{Code: "X", Schedule: []models.Meeting{thu, mon}})

	assert.True(t, differ.Diff(prev, curr).IsEmpty())
}

func TestDifferPartitionsKeys(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, nil)
	prev := snapshotAt(t, time.Now(),
		models.Section{Code: "K1", Capacity: 30},
		models.Section{Code: "K2", Capacity: 30},
		models.Section{Code: "K3", Capacity: 30},
		models.Section{Code: "K5", Capacity: 30},
	)
	curr := snapshotAt(t, time.Now(),
		models.Section{Code: "K2", Capacity: 30},
		models.Section{Code: "K3", Capacity: 45},
		models.Section{Code: "K4", Capacity: 30},
		models.Section{Code: "K0", Capacity: 30},
	)

	cs := differ.Diff(prev, curr)

	require.Len(t, cs.Added, 2)
	assert.Equal(t, "K0", cs.Added[0].Code)
	assert.Equal(t, "K4", cs.Added[1].Code)
	require.Len(t, cs.Removed, 2)
	assert.Equal(t, "K1", cs.Removed[0].Code)
	assert.Equal(t, "K5", cs.Removed[1].Code)
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "K3", cs.Modified[0].Code)
	assert.Equal(t, models.FieldDiff{Field: models.FieldCapacity, OldValue: "30", NewValue: "45"}, cs.Modified[0].Diffs[0])

	seen := map[string]int{}
	for _, s := range cs.Added {
		seen[s.Code]++
	}
	for _, s := range cs.Removed {
		seen[s.Code]++
	}
	for _, m := range cs.Modified {
		seen[m.Code]++
	}
	for code, n := range seen {
		assert.Equal(t, 1, n, code)
	}
	assert.Len(t, seen, 5)
}

func TestDifferNilPreviousReportsEverythingAdded(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, nil)
	curr := snapshotAt(t, time.Now(), introSections()...)

	cs := differ.Diff(nil, curr)

	assert.Len(t, cs.Added, 2)
	assert.Empty(t, cs.Removed)
	assert.Empty(t, cs.Modified)
}

func TestDifferScheduleAndLocation(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, nil)
	base := models.Section{Code: "L1", Professor: "Budi", Schedule: []models.Meeting{{Day: "Senin", StartTime: "08.00", EndTime: "09.40", Room: "A6.09"}}}

	moved := base
	moved.Schedule = []models.Meeting{{Day: "Selasa", StartTime: "08.00", EndTime: "09.40", Room: "A6.10"}}
	cs := differ.Diff(snapshotAt(t, time.Now(), base), snapshotAt(t, time.Now(), moved))
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, []models.FieldDiff{
		{Field: models.FieldSchedule, OldValue: "Senin, 08.00-09.40", NewValue: "Selasa, 08.00-09.40"},
		{Field: models.FieldLocation, OldValue: "A6.09", NewValue: "A6.10"},
	}, cs.Modified[0].Diffs)

	sameRoom := base
	sameRoom.Schedule = []models.Meeting{{Day: "Rabu", StartTime: "10.00", EndTime: "11.40", Room: "A6.09"}}
	cs = differ.Diff(snapshotAt(t, time.Now(), base), snapshotAt(t, time.Now(), sameRoom))
	require.Len(t, cs.Modified, 1)
	require.Len(t, cs.Modified[0].Diffs, 1)
	assert.Equal(t, models.FieldSchedule, cs.Modified[0].Diffs[0].Field)

	relocated := base
	relocated.Schedule = []models.Meeting{{Day: "Senin", StartTime: "08.00", EndTime: "09.40", Room: "2.2301"}}
	cs = differ.Diff(snapshotAt(t, time.Now(), base), snapshotAt(t, time.Now(), relocated))
	require.Len(t, cs.Modified, 1)
	assert.Equal(t, models.FieldDiff{Field: models.FieldLocation, OldValue: "A6.09", NewValue: "2.2301"}, cs.Modified[0].Diffs[0])
}

func TestDifferReportsRoomWhenSlotAndRoomBothChange(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, nil)
	old := models.Section{Code: "R1", Schedule: []models.Meeting{{Day: "Senin", StartTime: "08.00", EndTime: "09.40", Room: "A6.09"}}}
	next := models.Section{Code: "R1", Schedule: []models.Meeting{{Day: "Selasa", StartTime: "08.00", EndTime: "09.40", Room: "B1.01"}}}

	cs := differ.Diff(snapshotAt(t, time.Now(), old), snapshotAt(t, time.Now(), next))
	require.Len(t, cs.Modified, 1)
	change := cs.Modified[0]
	assert.True(t, change.Changed(models.FieldSchedule))
	assert.True(t, change.Changed(models.FieldLocation))
	assert.Contains(t, change.Diffs, models.FieldDiff{Field: models.FieldLocation, OldValue: "A6.09", NewValue: "B1.01"})
}

func TestDifferSuppression(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	differ := NewDiffer(DiffOptions{SuppressProfessor: true, SuppressLocation: true}, zap.New(core))
	meeting := models.Meeting{Day: "Senin", StartTime: "08.00", EndTime: "09.40", Room: "A6.09"}
	prev := snapshotAt(t, time.Now(),
		models.Section{Code: "P1", Professor: "Budi", Schedule: []models.Meeting{meeting}},
		models.Section{Code: "P2", Professor: "Budi", Capacity: 10},
		models.Section{Code: "P3", Schedule: []models.Meeting{meeting}},
	)
	relocated := meeting
	relocated.Room = "A6.10"
	curr := snapshotAt(t, time.Now(),
		models.Section{Code: "P1", Professor: "Ani", Schedule: []models.Meeting{meeting}},
		models.Section{Code: "P2", Professor: "Ani", Capacity: 20},
		models.Section{Code: "P3", Schedule: []models.Meeting{relocated}},
	)

	cs := differ.Diff(prev, curr)

	require.Len(t, cs.Modified, 1)
	assert.Equal(t, "P2", cs.Modified[0].Code)
	assert.True(t, cs.Modified[0].Changed(models.FieldProfessor))
	assert.True(t, cs.Modified[0].Changed(models.FieldCapacity))
	assert.Equal(t, 1, logs.FilterMessage("suppressed professor change").Len())
	assert.Equal(t, 1, logs.FilterMessage("suppressed location change").Len())
}

func TestDifferDeterministic(t *testing.T) {
	differ := NewDiffer(DiffOptions{}, nil)
	prev := snapshotAt(t, time.Now(), models.Section{Code: "Z"}, models.Section{Code: "M", Capacity: 1}, models.Section{Code: "A"})
	curr := snapshotAt(t, time.Now(), models.Section{Code: "M", Capacity: 2}, models.Section{Code: "B"}, models.Section{Code: "Y"})

	first := differ.Diff(prev, curr)
	second := differ.Diff(prev, curr)
	assert.Equal(t, first, second)
	assert.Equal(t, "B", first.Added[0].Code)
	assert.Equal(t, "A", first.Removed[0].Code)
}
