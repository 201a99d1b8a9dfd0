package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"dataprobe/domain/filter"
	filterengine "dataprobe/internal/analysis/filter"
)

// filterFlags collects --in, --range and --dates, each repeatable
type filterFlags struct {
	in     []string
	ranges []string
	dates  []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.in, "in", nil, "Keep rows whose column is one of the values: col=a,b")
	cmd.Flags().StringArrayVar(&f.ranges, "range", nil, "Keep rows whose numeric column is within lo:hi (either bound may be empty): col=lo:hi")
	cmd.Flags().StringArrayVar(&f.dates, "dates", nil, "Keep rows whose date column is within start:end, both inclusive: col=start:end (col=start..end for timestamps)")
}

var flagKinds = map[string]filter.SpecKind{
	filterengine.FieldCategory: filter.SpecCategorical,
	filterengine.FieldLow:      filter.SpecNumericRange,
	filterengine.FieldHigh:     filter.SpecNumericRange,
	filterengine.FieldStart:    filter.SpecDateRange,
	filterengine.FieldEnd:      filter.SpecDateRange,
}

// values turns the flags into the same parameters the web form submits
func (f *filterFlags) values() (url.Values, error) {
	v := url.Values{}
	for _, raw := range f.in {
		col, list, err := splitAssignment("--in", raw)
		if err != nil {
			return nil, err
		}
		for _, item := range strings.Split(list, ",") {
			v.Add(filterengine.FieldCategory+col, item)
		}
	}
	for _, raw := range f.ranges {
		col, lo, hi, err := splitBounds("--range", raw, ":")
		if err != nil {
			return nil, err
		}
		v.Set(filterengine.FieldLow+col, lo)
		v.Set(filterengine.FieldHigh+col, hi)
	}
	for _, raw := range f.dates {
		sep := ":"
		if strings.Contains(raw, "..") {
			// timestamps carry their own colons
			sep = ".."
		}
		col, start, end, err := splitBounds("--dates", raw, sep)
		if err != nil {
			return nil, err
		}
		v.Set(filterengine.FieldStart+col, start)
		v.Set(filterengine.FieldEnd+col, end)
	}
	return v, nil
}

func (f *filterFlags) selections(plan filter.Plan) (filter.Selections, error) {
	v, err := f.values()
	if err != nil {
		return nil, err
	}
	for key := range v {
		prefix, col, _ := strings.Cut(key, ":")
		cp, ok := plan.Lookup(col)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", col)
		}
		if want := flagKinds[prefix+":"]; cp.Spec.Kind() != want {
			return nil, fmt.Errorf("column %q offers a %s filter, not %s", col, cp.Spec.Kind(), want)
		}
	}
	return filterengine.ParseSelections(v, plan)
}

func splitAssignment(flag, raw string) (string, string, error) {
	col, rest, ok := strings.Cut(raw, "=")
	if !ok || col == "" {
		return "", "", fmt.Errorf("%s %q: expected col=value", flag, raw)
	}
	return col, rest, nil
}

func splitBounds(flag, raw, sep string) (string, string, string, error) {
	col, rest, err := splitAssignment(flag, raw)
	if err != nil {
		return "", "", "", err
	}
	lo, hi, ok := strings.Cut(rest, sep)
	if !ok {
		return "", "", "", fmt.Errorf("%s %q: expected col=lo%shi", flag, raw, sep)
	}
	return col, strings.TrimSpace(lo), strings.TrimSpace(hi), nil
}
