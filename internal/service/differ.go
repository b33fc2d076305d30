package service

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/siak-warlock/internal/models"
)

// DiffOptions tunes which modifications are reported.
type DiffOptions struct {
	// SuppressProfessor drops modifications whose only change is the professor.
	SuppressProfessor bool
	// SuppressLocation drops modifications whose only change is the room.
	SuppressLocation bool
}

// Differ compares two catalog snapshots keyed by section code.
type Differ struct {
	opts   DiffOptions
	logger *zap.Logger
}

// NewDiffer constructs a Differ.
func NewDiffer(opts DiffOptions, logger *zap.Logger) *Differ {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Differ{opts: opts, logger: logger}
}

// Diff returns the changeset turning previous into current. A nil snapshot is
// treated as empty. Output lists are ordered by code, so equal inputs always
// produce equal output.
func (d *Differ) Diff(previous, current *models.CatalogSnapshot) models.Changeset {
	cs := models.Changeset{
		Added:    []models.Section{},
		Removed:  []models.Section{},
		Modified: []models.SectionChange{},
	}

	for _, code := range current.Codes() {
		if _, ok := previous.Get(code); !ok {
			section, _ := current.Get(code)
			cs.Added = append(cs.Added, section)
		}
	}

	for _, code := range previous.Codes() {
		old, _ := previous.Get(code)
		next, ok := current.Get(code)
		if !ok {
			cs.Removed = append(cs.Removed, old)
			continue
		}
		change := compareSections(old, next)
		if len(change.Diffs) == 0 || d.suppressed(change) {
			continue
		}
		cs.Modified = append(cs.Modified, change)
	}

	return cs
}

func (d *Differ) suppressed(change models.SectionChange) bool {
	if len(change.Diffs) != 1 {
		return false
	}
	only := change.Diffs[0]
	switch {
	case d.opts.SuppressProfessor && only.Field == models.FieldProfessor:
		d.logger.Info("suppressed professor change",
			zap.String("code", change.Code),
			zap.String("old", only.OldValue),
			zap.String("new", only.NewValue))
		return true
	case d.opts.SuppressLocation && only.Field == models.FieldLocation:
		d.logger.Info("suppressed location change",
			zap.String("code", change.Code),
			zap.String("old", only.OldValue),
			zap.String("new", only.NewValue))
		return true
	}
	return false
}

// compareSections reports professor, schedule, location and capacity changes.
// Meetings are compared as unordered sets. With unchanged slots any room swap
// is a location change; with moved slots location is reported when the set of
// rooms differs.
func compareSections(old, next models.Section) models.SectionChange {
	change := models.SectionChange{Code: next.Code, CourseName: next.CourseName}

	if old.Professor != next.Professor {
		change.Diffs = append(change.Diffs, models.FieldDiff{Field: models.FieldProfessor, OldValue: old.Professor, NewValue: next.Professor})
	}
	sameSlots := old.SameSlots(next)
	if !sameSlots {
		change.Diffs = append(change.Diffs, models.FieldDiff{Field: models.FieldSchedule, OldValue: old.ScheduleText(), NewValue: next.ScheduleText()})
	}
	if (sameSlots && !old.SameRooms(next)) || (!sameSlots && !old.SameRoomSet(next)) {
		change.Diffs = append(change.Diffs, models.FieldDiff{Field: models.FieldLocation, OldValue: old.LocationText(), NewValue: next.LocationText()})
	}
	if old.Capacity != next.Capacity {
		change.Diffs = append(change.Diffs, models.FieldDiff{Field: models.FieldCapacity, OldValue: strconv.Itoa(old.Capacity), NewValue: strconv.Itoa(next.Capacity)})
	}
	return change
}
