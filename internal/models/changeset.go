package models

// Field names reported in FieldDiff.
const (
	FieldProfessor = "professor"
	FieldSchedule  = "schedule"
	FieldLocation  = "location"
	FieldCapacity  = "capacity"
)

// FieldDiff records one changed field of a persisting section.
type FieldDiff struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// SectionChange lists the field diffs of a section present in both snapshots.
type SectionChange struct {
	Code       string      `json:"code"`
	CourseName string      `json:"course_name"`
	Diffs      []FieldDiff `json:"diffs"`
}

// Changed reports whether the given field is among the diffs.
func (c SectionChange) Changed(field string) bool {
	for _, d := range c.Diffs {
		if d.Field == field {
			return true
		}
	}
	return false
}

// Changeset is the output of comparing two snapshots. The three lists are
// disjoint and each is ordered by section code.
type Changeset struct {
	Added    []Section       `json:"added"`
	Removed  []Section       `json:"removed"`
	Modified []SectionChange `json:"modified"`
}

// IsEmpty reports whether nothing changed.
func (c Changeset) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0
}

// Size returns the number of affected sections.
func (c Changeset) Size() int {
	return len(c.Added) + len(c.Removed) + len(c.Modified)
}
