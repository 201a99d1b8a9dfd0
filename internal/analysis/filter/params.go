package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"dataprobe/domain/core"
	"dataprobe/domain/filter"
	"dataprobe/domain/table"
)

// Field prefixes of the selection parameters, followed by the column name
const (
	FieldCategory = "cat:"
	FieldLow      = "lo:"
	FieldHigh     = "hi:"
	FieldStart    = "start:"
	FieldEnd      = "end:"
)

var paramDateLayouts = []string{table.DateLayout, "2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339}

// ParseSelections reads selection parameters (a submitted form, CLI flags) against the
// plan. Categorical columns always get a selection, possibly empty; range columns get one
// only when a bound was given, and a missing bound falls back to the column's own.
// Parameters naming unknown or unfilterable columns are ignored.
func ParseSelections(form url.Values, plan filter.Plan) (filter.Selections, error) {
	selections := make(filter.Selections, len(plan.Columns))
	for _, cp := range plan.Columns {
		switch spec := cp.Spec.(type) {
		case filter.CategoricalChoice:
			var keys []string
			for _, k := range form[FieldCategory+cp.Column] {
				if k != "" {
					keys = append(keys, k)
				}
			}
			selections[cp.Column] = filter.CategorySelection{Keys: keys}

		case filter.NumericRange:
			lo, hi := strings.TrimSpace(form.Get(FieldLow+cp.Column)), strings.TrimSpace(form.Get(FieldHigh+cp.Column))
			if lo == "" && hi == "" {
				continue
			}
			sel := filter.NumericSelection{Low: spec.Low, High: spec.High}
			var err error
			if lo != "" {
				if sel.Low, err = parseParamNumber(lo); err != nil {
					return nil, core.NewSelectionError(cp.Column, "invalid lower bound "+strconv.Quote(lo))
				}
			}
			if hi != "" {
				if sel.High, err = parseParamNumber(hi); err != nil {
					return nil, core.NewSelectionError(cp.Column, "invalid upper bound "+strconv.Quote(hi))
				}
			}
			selections[cp.Column] = sel

		case filter.DateRange:
			start, end := strings.TrimSpace(form.Get(FieldStart+cp.Column)), strings.TrimSpace(form.Get(FieldEnd+cp.Column))
			if start == "" && end == "" {
				continue
			}
			sel := filter.DateSelection{Start: spec.Start, End: spec.End}
			if start != "" {
				t, _, ok := parseParamDate(start)
				if !ok {
					return nil, core.NewSelectionError(cp.Column, "invalid start date "+strconv.Quote(start))
				}
				sel.Start = t
			}
			if end != "" {
				t, dateOnly, ok := parseParamDate(end)
				if !ok {
					return nil, core.NewSelectionError(cp.Column, "invalid end date "+strconv.Quote(end))
				}
				if dateOnly {
					// A picked day includes all of that day.
					t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
				}
				sel.End = t
			}
			selections[cp.Column] = sel
		}
	}
	return selections, nil
}

func parseParamNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

func parseParamDate(s string) (time.Time, bool, bool) {
	for i, layout := range paramDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), i == 0, true
		}
	}
	return time.Time{}, false, false
}
