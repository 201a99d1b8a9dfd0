// Package summary holds the descriptive statistics computed over a (filtered) table.
package summary

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"dataprobe/domain/table"
)

// Stat is an aggregate that may be undefined (no rows, no variance, wrong kind).
// Undefined values are never coerced to zero.
type Stat struct {
	Value float64
	Valid bool
}

// Defined wraps a computed value. NaN and infinities become undefined.
func Defined(v float64) Stat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Stat{}
	}
	return Stat{Value: v, Valid: true}
}

// Undefined is the explicit marker for aggregates with no applicable data
func Undefined() Stat {
	return Stat{}
}

// Float returns the value, or NaN when undefined
func (s Stat) Float() float64 {
	if !s.Valid {
		return math.NaN()
	}
	return s.Value
}

// String renders the value with at most four decimals, "—" when undefined
func (s Stat) String() string {
	if !s.Valid {
		return "—"
	}
	out := strconv.FormatFloat(s.Value, 'f', 4, 64)
	out = strings.TrimRight(strings.TrimRight(out, "0"), ".")
	if out == "-0" {
		return "0"
	}
	return out
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// TimeStat is a datetime aggregate that may be undefined
type TimeStat struct {
	Time  time.Time
	Valid bool
}

func (s TimeStat) String() string {
	if !s.Valid {
		return "—"
	}
	return table.FormatTime(s.Time)
}

func (s TimeStat) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(table.FormatTime(s.Time))
}

// ValueCount is one bar of a value_counts listing
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnStats collects the statistics of one column
type ColumnStats struct {
	Name string     `json:"name"`
	Kind table.Kind `json:"kind"`

	Count      int `json:"count"`
	Nulls      int `json:"nulls"`
	Distinct   int `json:"distinct"`
	Duplicates int `json:"duplicates"`

	// Numeric columns only
	Min    Stat `json:"min"`
	Max    Stat `json:"max"`
	Mean   Stat `json:"mean"`
	Median Stat `json:"median"`
	Mode   Stat `json:"mode"`
	StdDev Stat `json:"std_dev"`
	Q1     Stat `json:"q1"`
	Q3     Stat `json:"q3"`

	// Datetime columns only
	Earliest TimeStat `json:"earliest"`
	Latest   TimeStat `json:"latest"`

	// Text columns only, most frequent first
	Top []ValueCount `json:"top,omitempty"`
}

// CorrelationMatrix is a symmetric pairwise Pearson matrix over numeric columns
type CorrelationMatrix struct {
	Columns []string `json:"columns"`
	Values  [][]Stat `json:"values"`
}

// At returns the coefficient of a column pair
func (m *CorrelationMatrix) At(a, b string) (Stat, bool) {
	i, j := -1, -1
	for k, name := range m.Columns {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return Stat{}, false
	}
	return m.Values[i][j], true
}

// Report is the full statistics object for one table
type Report struct {
	Rows           int                `json:"rows"`
	Columns        []ColumnStats      `json:"columns"`
	NumericColumns []string           `json:"numeric_columns"`
	Correlation    *CorrelationMatrix `json:"correlation,omitempty"`
}

// Column finds the stats of a column
func (r *Report) Column(name string) (ColumnStats, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// HasNumeric reports whether numeric sections apply
func (r *Report) HasNumeric() bool {
	return len(r.NumericColumns) > 0
}

// TotalNulls sums missing cells over every column
func (r *Report) TotalNulls() int {
	n := 0
	for _, c := range r.Columns {
		n += c.Nulls
	}
	return n
}
