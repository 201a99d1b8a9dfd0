// Package filter applies per-column selections to a table.
package filter

import (
	"math"

	"dataprobe/domain/core"
	"dataprobe/domain/filter"
	"dataprobe/domain/table"
)

// predicate reports whether row i of a column survives
type predicate func(col *table.Column, i int) bool

// Apply keeps the rows that satisfy every active selection (logical AND) and returns
// them as a fresh table. The source table is never modified.
//
// A selection that restricts nothing is not active: an empty category set, a category
// set covering every allowed value, or a range spanning the column's full bounds. Nulls
// fail every active predicate.
func Apply(t *table.Table, plan filter.Plan, selections filter.Selections) (filter.Result, error) {
	if err := Validate(plan, selections); err != nil {
		return filter.Result{}, err
	}

	rows := table.AllRows(t.NumRows())
	var active []string
	for _, cp := range plan.Columns {
		sel, ok := selections[cp.Column]
		if !ok || sel == nil {
			continue
		}
		pred := compile(cp.Spec, sel)
		if pred == nil {
			continue
		}
		col, ok := t.Column(cp.Column)
		if !ok {
			return filter.Result{}, core.NewSelectionError(cp.Column, "column is not in the table")
		}
		active = append(active, cp.Column)
		rows = keep(rows, col, pred)
	}

	return filter.Result{
		Table:      t.Subset(rows),
		SourceRows: t.NumRows(),
		Active:     active,
	}, nil
}

// Validate checks every selection against the plan without touching any data
func Validate(plan filter.Plan, selections filter.Selections) error {
	for column, sel := range selections {
		if sel == nil {
			continue
		}
		cp, ok := plan.Lookup(column)
		if !ok {
			return core.NewSelectionError(column, "unknown column")
		}
		if !sel.Matches(cp.Spec) {
			return core.NewSelectionError(column, "selection does not fit a "+cp.Spec.Kind().String()+" filter")
		}
		switch s := sel.(type) {
		case filter.NumericSelection:
			if math.IsNaN(s.Low) || math.IsNaN(s.High) {
				return core.NewSelectionError(column, "range bound is not a number")
			}
			if s.Low > s.High {
				return core.NewSelectionError(column, "range lower bound is above upper bound")
			}
		case filter.DateSelection:
			if s.Start.After(s.End) {
				return core.NewSelectionError(column, "start date is after end date")
			}
		}
	}
	return nil
}

// compile turns a validated selection into a predicate, or nil when it restricts nothing
func compile(spec filter.Spec, sel filter.Selection) predicate {
	switch s := sel.(type) {
	case filter.CategorySelection:
		return categoryPredicate(spec.(filter.CategoricalChoice), s)
	case filter.NumericSelection:
		bounds := spec.(filter.NumericRange)
		if s.Low <= bounds.Low && s.High >= bounds.High {
			return nil
		}
		return func(col *table.Column, i int) bool {
			if col.IsNull(i) {
				return false
			}
			v := col.Number(i)
			return s.Low <= v && v <= s.High
		}
	case filter.DateSelection:
		bounds := spec.(filter.DateRange)
		if !s.Start.After(bounds.Start) && !s.End.Before(bounds.End) {
			return nil
		}
		return func(col *table.Column, i int) bool {
			if col.IsNull(i) {
				return false
			}
			v := col.Time(i)
			return !v.Before(s.Start) && !v.After(s.End)
		}
	}
	return nil
}

func categoryPredicate(choice filter.CategoricalChoice, sel filter.CategorySelection) predicate {
	if len(sel.Keys) == 0 {
		return nil
	}
	selected := make(map[string]struct{}, len(sel.Keys))
	for _, k := range sel.Keys {
		selected[k] = struct{}{}
	}

	coversAll := true
	for _, k := range choice.Keys() {
		if _, ok := selected[k]; !ok {
			coversAll = false
			break
		}
	}
	if coversAll {
		return nil
	}

	return func(col *table.Column, i int) bool {
		if col.IsNull(i) {
			return false
		}
		_, ok := selected[col.Key(i)]
		return ok
	}
}

func keep(rows []int, col *table.Column, pred predicate) []int {
	out := rows[:0]
	for _, i := range rows {
		if pred(col, i) {
			out = append(out, i)
		}
	}
	return out
}
