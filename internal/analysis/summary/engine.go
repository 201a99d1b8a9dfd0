// Package summary computes descriptive statistics over a table.
package summary

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"dataprobe/domain/summary"
	"dataprobe/domain/table"
)

// Summarize computes the report of a table. It never fails: aggregates that cannot be
// computed (empty columns, n < 2 for the standard deviation, zero variance for a
// correlation) are reported as undefined.
func Summarize(t *table.Table) *summary.Report {
	report := &summary.Report{
		Rows:           t.NumRows(),
		Columns:        make([]summary.ColumnStats, 0, t.NumColumns()),
		NumericColumns: []string{},
	}

	var numeric []*table.Column
	for _, col := range t.Columns() {
		report.Columns = append(report.Columns, SummarizeColumn(col))
		if col.Kind == table.KindNumeric {
			numeric = append(numeric, col)
			report.NumericColumns = append(report.NumericColumns, col.Name)
		}
	}

	if len(numeric) >= 2 {
		report.Correlation = Correlate(numeric)
	}
	return report
}

// SummarizeColumn computes the statistics of a single column
func SummarizeColumn(col *table.Column) summary.ColumnStats {
	cs := summary.ColumnStats{
		Name:   col.Name,
		Kind:   col.Kind,
		Nulls:  col.NullCount(),
		Min:    summary.Undefined(),
		Max:    summary.Undefined(),
		Mean:   summary.Undefined(),
		Median: summary.Undefined(),
		Mode:   summary.Undefined(),
		StdDev: summary.Undefined(),
		Q1:     summary.Undefined(),
		Q3:     summary.Undefined(),
	}
	cs.Count = col.Len() - cs.Nulls
	cs.Distinct, cs.Duplicates = distinctAndDuplicates(col)

	switch col.Kind {
	case table.KindNumeric:
		describeNumbers(&cs, col.Numbers())
	case table.KindDatetime:
		times := col.Times()
		if len(times) > 0 {
			earliest := slices.MinFunc(times, func(a, b time.Time) int { return a.Compare(b) })
			latest := slices.MaxFunc(times, func(a, b time.Time) int { return a.Compare(b) })
			cs.Earliest = summary.TimeStat{Time: earliest, Valid: true}
			cs.Latest = summary.TimeStat{Time: latest, Valid: true}
		}
	default:
		cs.Top = ValueCounts(col)
	}
	return cs
}

// distinctAndDuplicates counts distinct non-null keys, and rows whose value (null
// included) already appeared on an earlier row
func distinctAndDuplicates(col *table.Column) (distinct, duplicates int) {
	seen := make(map[string]struct{}, col.Len())
	sawNull := false
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			if sawNull {
				duplicates++
			}
			sawNull = true
			continue
		}
		key := col.Key(i)
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen), duplicates
}

func describeNumbers(cs *summary.ColumnStats, values []float64) {
	if len(values) == 0 {
		return
	}
	data := stats.Float64Data(values)

	if v, err := data.Min(); err == nil {
		cs.Min = summary.Defined(v)
	}
	if v, err := data.Max(); err == nil {
		cs.Max = summary.Defined(v)
	}
	if v, err := data.Mean(); err == nil {
		cs.Mean = summary.Defined(v)
	}
	if v, err := data.Median(); err == nil {
		cs.Median = summary.Defined(v)
	}
	if len(values) >= 2 {
		if v, err := stats.StandardDeviationSample(data); err == nil {
			cs.StdDev = summary.Defined(v)
		}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	cs.Q1 = summary.Defined(Quantile(sorted, 0.25))
	cs.Q3 = summary.Defined(Quantile(sorted, 0.75))
	cs.Mode = summary.Defined(Mode(sorted))
}

// Quantile interpolates linearly between the closest ranks of sorted data, so that
// q=0.5 is the median and q=0 and q=1 are the extremes. sorted must be non-empty.
func Quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Mode returns the most frequent value of sorted data, the lowest one among ties.
// sorted must be non-empty.
func Mode(sorted []float64) float64 {
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}

// ValueCounts lists every non-null value with its frequency, most frequent first and
// ties in ascending value order
func ValueCounts(col *table.Column) []summary.ValueCount {
	counts := make(map[string]int)
	for i := 0; i < col.Len(); i++ {
		if !col.IsNull(i) {
			counts[col.Key(i)]++
		}
	}

	out := make([]summary.ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, summary.ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Correlate builds the pairwise Pearson matrix, each pair over the rows where both
// columns are non-null
func Correlate(columns []*table.Column) *summary.CorrelationMatrix {
	m := &summary.CorrelationMatrix{
		Columns: make([]string, len(columns)),
		Values:  make([][]summary.Stat, len(columns)),
	}
	for i, col := range columns {
		m.Columns[i] = col.Name
		m.Values[i] = make([]summary.Stat, len(columns))
	}

	for i := range columns {
		for j := i; j < len(columns); j++ {
			r := pearson(columns[i], columns[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pearson(a, b *table.Column) summary.Stat {
	var x, y []float64
	for i := 0; i < a.Len(); i++ {
		if a.IsNull(i) || b.IsNull(i) {
			continue
		}
		x = append(x, a.Number(i))
		y = append(y, b.Number(i))
	}
	if len(x) < 2 {
		return summary.Undefined()
	}
	// Zero variance yields NaN, which Defined reports as undefined.
	return summary.Defined(stat.Correlation(x, y, nil))
}
