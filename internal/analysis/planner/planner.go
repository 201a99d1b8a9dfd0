// Package planner decides, per column, which filter control a table offers.
package planner

import (
	"slices"

	"dataprobe/domain/filter"
	"dataprobe/domain/table"
)

// Plan builds one ColumnPlan per column, in column order
func Plan(t *table.Table) filter.Plan {
	plan := filter.Plan{Columns: make([]filter.ColumnPlan, 0, t.NumColumns())}
	for _, col := range t.Columns() {
		plan.Columns = append(plan.Columns, PlanColumn(col))
	}
	return plan
}

// PlanColumn profiles a column and picks its spec and default selection.
//
// Small distinct sets become categorical whatever the kind; larger numeric and datetime
// columns become ranges defaulting to their full extent; larger text columns get no control.
func PlanColumn(col *table.Column) filter.ColumnPlan {
	profile := Profile(col)
	cp := filter.ColumnPlan{
		Column:  col.Name,
		Kind:    col.Kind,
		Profile: profile,
	}

	switch {
	case profile.DistinctCount() <= filter.CategoricalLimit:
		cp.Spec = filter.CategoricalChoice{Allowed: profile.Distinct}
		cp.Default = filter.CategorySelection{}
	case col.Kind == table.KindNumeric:
		cp.Spec = filter.NumericRange{Low: profile.Min.Number, High: profile.Max.Number}
		cp.Default = filter.NumericSelection{Low: profile.Min.Number, High: profile.Max.Number}
	case col.Kind == table.KindDatetime:
		cp.Spec = filter.DateRange{Start: profile.Min.Time, End: profile.Max.Time}
		cp.Default = filter.DateSelection{Start: profile.Min.Time, End: profile.Max.Time}
	default:
		cp.Spec = filter.Unfilterable{}
	}
	return cp
}

// Profile collects the distinct non-null values of a column in ascending order
func Profile(col *table.Column) filter.ColumnProfile {
	profile := filter.ColumnProfile{
		Kind: col.Kind,
		Min:  table.NullValue(col.Kind),
		Max:  table.NullValue(col.Kind),
	}

	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			profile.Nulls++
			continue
		}
		key := col.Key(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		profile.Distinct = append(profile.Distinct, col.Value(i))
	}

	slices.SortFunc(profile.Distinct, table.Value.Compare)
	if n := len(profile.Distinct); n > 0 {
		profile.Min = profile.Distinct[0]
		profile.Max = profile.Distinct[n-1]
	}
	return profile
}
