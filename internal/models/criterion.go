package models

import (
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/siak-warlock/pkg/errors"
	"github.com/noah-isme/siak-warlock/pkg/textfold"
)

// Fragment is an optional criterion field with an explicit presence flag.
type Fragment struct {
	Value   string
	Present bool
}

// Some returns a present fragment, or an absent one when v is blank.
func Some(v string) Fragment {
	v = strings.TrimSpace(v)
	if v == "" {
		return Fragment{}
	}
	return Fragment{Value: v, Present: true}
}

// None returns an absent fragment.
func None() Fragment { return Fragment{} }

// Criterion is one user-declared selection rule.
type Criterion struct {
	CourseName  Fragment
	Professor   Fragment
	Time        Fragment
	ExactCode   Fragment
	DisplayName string
}

// Validate requires an exact code or a course name fragment. A present
// fragment that is blank after folding would match every section and is
// rejected.
func (c Criterion) Validate() error {
	if c.ExactCode.Present && strings.TrimSpace(c.ExactCode.Value) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "criterion exact code is blank")
	}
	fuzzy := []struct {
		name string
		f    Fragment
	}{
		{"course name", c.CourseName},
		{"professor", c.Professor},
		{"time", c.Time},
	}
	for _, field := range fuzzy {
		if field.f.Present && textfold.Fold(field.f.Value) == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("criterion %s fragment is blank", field.name))
		}
	}
	if c.ExactCode.Present || c.CourseName.Present {
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("criterion %s needs an exact code or a course name", c.Label()))
}

// Label renders the criterion for logs.
func (c Criterion) Label() string {
	parts := make([]string, 0, 5)
	if c.DisplayName != "" {
		parts = append(parts, "["+c.DisplayName+"]")
	}
	if c.CourseName.Present {
		parts = append(parts, "Course: "+c.CourseName.Value)
	}
	if c.Professor.Present {
		parts = append(parts, "Prof: "+c.Professor.Value)
	}
	if c.ExactCode.Present {
		parts = append(parts, "Code: "+c.ExactCode.Value)
	}
	if c.Time.Present {
		parts = append(parts, "Time: "+c.Time.Value)
	}
	if len(parts) == 0 {
		return "<empty>"
	}
	return strings.Join(parts, " ")
}

// CriterionSet is an ordered, validated list of criteria for one enrollment run.
type CriterionSet struct {
	criteria []Criterion
}

// NewCriterionSet validates every criterion and fails fast on the first invalid one.
func NewCriterionSet(criteria ...Criterion) (CriterionSet, error) {
	for i, c := range criteria {
		if err := c.Validate(); err != nil {
			return CriterionSet{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("criterion #%d invalid", i+1))
		}
	}
	out := make([]Criterion, len(criteria))
	copy(out, criteria)
	return CriterionSet{criteria: out}, nil
}

// Criteria returns the criteria in declaration order.
func (s CriterionSet) Criteria() []Criterion {
	out := make([]Criterion, len(s.criteria))
	copy(out, s.criteria)
	return out
}

// Len returns the number of criteria.
func (s CriterionSet) Len() int { return len(s.criteria) }
