// Package filter defines the filterable shape of columns and the user's choices over them.
package filter

import (
	"fmt"
	"time"

	"dataprobe/domain/table"
)

// CategoricalLimit is the largest distinct-value count offered as a multi-choice control.
// Columns at or below it are categorical whatever their kind.
const CategoricalLimit = 20

// SpecKind tags the FilterSpec variants
type SpecKind int

const (
	SpecUnfilterable SpecKind = iota
	SpecCategorical
	SpecNumericRange
	SpecDateRange
)

func (k SpecKind) String() string {
	switch k {
	case SpecCategorical:
		return "categorical"
	case SpecNumericRange:
		return "numeric_range"
	case SpecDateRange:
		return "date_range"
	default:
		return "unfilterable"
	}
}

// MarshalText lets spec kinds travel as strings in JSON payloads
func (k SpecKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Spec is the declared filterable shape of one column
type Spec interface {
	Kind() SpecKind
	isSpec()
}

// CategoricalChoice offers a choice among every distinct value, in ascending order
type CategoricalChoice struct {
	Allowed []table.Value
}

// NumericRange offers an inclusive [Low, High] slider
type NumericRange struct {
	Low, High float64
}

// DateRange offers an inclusive [Start, End] date picker
type DateRange struct {
	Start, End time.Time
}

// Unfilterable offers no control
type Unfilterable struct{}

func (CategoricalChoice) Kind() SpecKind { return SpecCategorical }
func (NumericRange) Kind() SpecKind      { return SpecNumericRange }
func (DateRange) Kind() SpecKind         { return SpecDateRange }
func (Unfilterable) Kind() SpecKind      { return SpecUnfilterable }

func (CategoricalChoice) isSpec() {}
func (NumericRange) isSpec()      {}
func (DateRange) isSpec()         {}
func (Unfilterable) isSpec()      {}

// Keys returns the canonical keys of the allowed values
func (c CategoricalChoice) Keys() []string {
	keys := make([]string, len(c.Allowed))
	for i, v := range c.Allowed {
		keys[i] = v.Key()
	}
	return keys
}

// Selection is the user's current choice for one column
type Selection interface {
	// Matches reports whether the selection shape fits the spec variant
	Matches(spec Spec) bool
	isSelection()
}

// CategorySelection keeps rows whose key is listed. No keys means no restriction.
type CategorySelection struct {
	Keys []string
}

// NumericSelection keeps rows with Low <= v <= High
type NumericSelection struct {
	Low, High float64
}

// DateSelection keeps rows with Start <= v <= End
type DateSelection struct {
	Start, End time.Time
}

func (CategorySelection) Matches(spec Spec) bool { return spec.Kind() == SpecCategorical }
func (NumericSelection) Matches(spec Spec) bool  { return spec.Kind() == SpecNumericRange }
func (DateSelection) Matches(spec Spec) bool     { return spec.Kind() == SpecDateRange }

func (CategorySelection) isSelection() {}
func (NumericSelection) isSelection()  {}
func (DateSelection) isSelection()     {}

// Selections maps column names to the current choice. Absent columns are unrestricted.
type Selections map[string]Selection

// Clone returns a shallow copy safe to modify
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ColumnProfile describes the distinct values of one column
type ColumnProfile struct {
	Kind     table.Kind
	Distinct []table.Value // non-null, ascending
	Nulls    int
	Min, Max table.Value // null when the column has no non-null value
}

// DistinctCount is the number of distinct non-null values
func (p ColumnProfile) DistinctCount() int {
	return len(p.Distinct)
}

// ColumnPlan is the planner's output for one column
type ColumnPlan struct {
	Column  string
	Kind    table.Kind
	Profile ColumnProfile
	Spec    Spec
	Default Selection // nil when the spec offers no control
}

// Plan lists one ColumnPlan per column, in column order
type Plan struct {
	Columns []ColumnPlan
}

// Lookup finds the plan of a column
func (p Plan) Lookup(column string) (ColumnPlan, bool) {
	for _, cp := range p.Columns {
		if cp.Column == column {
			return cp, true
		}
	}
	return ColumnPlan{}, false
}

// Defaults returns the default selection of every filterable column
func (p Plan) Defaults() Selections {
	out := make(Selections, len(p.Columns))
	for _, cp := range p.Columns {
		if cp.Default != nil {
			out[cp.Column] = cp.Default
		}
	}
	return out
}

// Status distinguishes the outcomes of applying a set of selections
type Status int

const (
	// StatusNoFilters means no selection restricted any row
	StatusNoFilters Status = iota
	// StatusFiltered means at least one predicate was applied and rows remain
	StatusFiltered
	// StatusEmpty means no row survived
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusFiltered:
		return "filtered"
	case StatusEmpty:
		return "empty"
	default:
		return "no_filters"
	}
}

// MarshalText lets statuses travel as strings in JSON payloads
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the filtered row subset plus how it was obtained
type Result struct {
	Table      *table.Table
	SourceRows int
	// Active lists the columns whose predicate restricted rows, in column order
	Active []string
}

// Status classifies the result
func (r Result) Status() Status {
	switch {
	case r.Table == nil || r.Table.NumRows() == 0:
		return StatusEmpty
	case len(r.Active) == 0:
		return StatusNoFilters
	default:
		return StatusFiltered
	}
}

// Warning returns the empty-result warning, or nil when rows remain
func (r Result) Warning() *EmptyResultWarning {
	if r.Status() != StatusEmpty {
		return nil
	}
	return &EmptyResultWarning{SourceRows: r.SourceRows, Active: r.Active}
}

// EmptyResultWarning is raised, not returned as an error, when filtering leaves no rows
type EmptyResultWarning struct {
	SourceRows int
	Active     []string
}

func (w *EmptyResultWarning) Error() string {
	if len(w.Active) == 0 {
		return "no rows in the dataset"
	}
	return fmt.Sprintf("no rows match the current filters (%d filtered columns, %d source rows)", len(w.Active), w.SourceRows)
}
