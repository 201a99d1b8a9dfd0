// Package charts turns a filtered table into chart data and renders it as SVG.
package charts

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"dataprobe/domain/summary"
	"dataprobe/domain/table"
	summaryengine "dataprobe/internal/analysis/summary"
)

// HistogramBins is the number of equal-width bins of a numeric histogram
const HistogramBins = 30

// MaxBars caps how many values a bar chart shows; the rest are dropped from the chart only
const MaxBars = 50

// Box is the five-number summary drawn above a histogram
type Box struct {
	Min, Q1, Median, Q3, Max float64
}

// Histogram is the binned distribution of a numeric column. Edges has len(Counts)+1
// entries; every bin is [Edges[i], Edges[i+1]) except the last, which includes Max.
type Histogram struct {
	Column string
	Edges  []float64
	Counts []float64
	Box    Box
}

// Total is the number of values counted over every bin
func (h *Histogram) Total() int {
	return int(floats.Sum(h.Counts))
}

// Bars is the value_counts view of a text column, most frequent first
type Bars struct {
	Column string
	Values []summary.ValueCount
	// Truncated is the number of distinct values left out of Values
	Truncated int
}

// Set holds every chart of one table
type Set struct {
	Histograms []*Histogram
	Bars       []*Bars
	Heatmap    *Heatmap
}

// Build derives the charts of a table: a histogram per numeric column, a bar chart per
// text column and a heatmap when the report carries a correlation matrix. Columns
// without any non-null value produce no chart.
func Build(t *table.Table, report *summary.Report) Set {
	var set Set
	for _, col := range t.Columns() {
		switch col.Kind {
		case table.KindNumeric:
			if h := NewHistogram(col); h != nil {
				set.Histograms = append(set.Histograms, h)
			}
		case table.KindText:
			if b := NewBars(col); b != nil {
				set.Bars = append(set.Bars, b)
			}
		}
	}
	if report != nil && report.Correlation != nil {
		set.Heatmap = NewHeatmap(report.Correlation)
	}
	return set
}

// NewHistogram bins the non-null values of a numeric column, or returns nil when there
// are none
func NewHistogram(col *table.Column) *Histogram {
	if col.Kind != table.KindNumeric {
		return nil
	}
	values := col.Numbers()
	if len(values) == 0 {
		return nil
	}
	slices.Sort(values)
	lo, hi := values[0], values[len(values)-1]

	bins := HistogramBins
	if lo == hi {
		bins = 1
	}
	dividers := make([]float64, bins+1)
	if math.IsInf(hi-lo, 0) {
		// The span overflows float64; step on the halves instead.
		step := hi/float64(bins) - lo/float64(bins)
		for i := range dividers {
			dividers[i] = lo + step*float64(i)
		}
	} else {
		floats.Span(dividers, lo, hi)
	}
	// stat.Histogram bins are half-open, so the last divider must sit past the maximum.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	return &Histogram{
		Column: col.Name,
		Edges:  dividers,
		Counts: stat.Histogram(nil, dividers, values, nil),
		Box: Box{
			Min:    lo,
			Q1:     summaryengine.Quantile(values, 0.25),
			Median: summaryengine.Quantile(values, 0.5),
			Q3:     summaryengine.Quantile(values, 0.75),
			Max:    hi,
		},
	}
}

// NewBars counts the values of a text column, or returns nil when there are none
func NewBars(col *table.Column) *Bars {
	counts := summaryengine.ValueCounts(col)
	if len(counts) == 0 {
		return nil
	}
	b := &Bars{Column: col.Name, Values: counts}
	if len(counts) > MaxBars {
		b.Values = counts[:MaxBars]
		b.Truncated = len(counts) - MaxBars
	}
	return b
}

// Histogram returns the histogram of a column
func (s Set) Histogram(column string) (*Histogram, bool) {
	for _, h := range s.Histograms {
		if h.Column == column {
			return h, true
		}
	}
	return nil, false
}

// BarsFor returns the bar chart of a column
func (s Set) BarsFor(column string) (*Bars, bool) {
	for _, b := range s.Bars {
		if b.Column == column {
			return b, true
		}
	}
	return nil, false
}
