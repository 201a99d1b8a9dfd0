package table

import (
	"fmt"
	"time"
)

// Column is a named, uniformly typed sequence of nullable cells. Only the slice that
// matches Kind is populated.
type Column struct {
	Name string
	Kind Kind

	numbers []float64
	times   []time.Time
	texts   []string
	nulls   []bool
}

// NewColumn builds a column from typed values. Every non-null value must match kind.
func NewColumn(name string, kind Kind, values []Value) (*Column, error) {
	c := newEmptyColumn(name, kind, len(values))
	for i, v := range values {
		if v.Null {
			c.nulls[i] = true
			continue
		}
		if v.Kind != kind {
			return nil, fmt.Errorf("column %q row %d: %s value in %s column", name, i, v.Kind, kind)
		}
		c.set(i, v)
	}
	return c, nil
}

// NumericColumn builds a numeric column without nulls
func NumericColumn(name string, values []float64) *Column {
	c := newEmptyColumn(name, KindNumeric, len(values))
	copy(c.numbers, values)
	return c
}

// DatetimeColumn builds a datetime column without nulls
func DatetimeColumn(name string, values []time.Time) *Column {
	c := newEmptyColumn(name, KindDatetime, len(values))
	copy(c.times, values)
	return c
}

// TextColumn builds a text column without nulls
func TextColumn(name string, values []string) *Column {
	c := newEmptyColumn(name, KindText, len(values))
	copy(c.texts, values)
	return c
}

func newEmptyColumn(name string, kind Kind, n int) *Column {
	c := &Column{Name: name, Kind: kind, nulls: make([]bool, n)}
	switch kind {
	case KindNumeric:
		c.numbers = make([]float64, n)
	case KindDatetime:
		c.times = make([]time.Time, n)
	default:
		c.texts = make([]string, n)
	}
	return c
}

func (c *Column) set(i int, v Value) {
	switch c.Kind {
	case KindNumeric:
		c.numbers[i] = v.Number
	case KindDatetime:
		c.times[i] = v.Time
	default:
		c.texts[i] = v.Text
	}
}

// Len returns the number of rows
func (c *Column) Len() int {
	return len(c.nulls)
}

// IsNull reports whether row i is missing
func (c *Column) IsNull(i int) bool {
	return c.nulls[i]
}

// Number returns the numeric cell at row i
func (c *Column) Number(i int) float64 {
	return c.numbers[i]
}

// Time returns the datetime cell at row i
func (c *Column) Time(i int) time.Time {
	return c.times[i]
}

// Text returns the text cell at row i
func (c *Column) Text(i int) string {
	return c.texts[i]
}

// Value returns row i as a typed Value
func (c *Column) Value(i int) Value {
	if c.nulls[i] {
		return NullValue(c.Kind)
	}
	switch c.Kind {
	case KindNumeric:
		return NumberValue(c.numbers[i])
	case KindDatetime:
		return TimeValue(c.times[i])
	default:
		return TextValue(c.texts[i])
	}
}

// Key returns the canonical key of row i, empty for nulls
func (c *Column) Key(i int) string {
	return c.Value(i).Key()
}

// NullCount counts missing rows
func (c *Column) NullCount() int {
	n := 0
	for _, null := range c.nulls {
		if null {
			n++
		}
	}
	return n
}

// Numbers returns the non-null numeric values in row order. Nil for other kinds.
func (c *Column) Numbers() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.numbers))
	for i, f := range c.numbers {
		if !c.nulls[i] {
			out = append(out, f)
		}
	}
	return out
}

// Times returns the non-null datetime values in row order. Nil for other kinds.
func (c *Column) Times() []time.Time {
	if c.Kind != KindDatetime {
		return nil
	}
	out := make([]time.Time, 0, len(c.times))
	for i, t := range c.times {
		if !c.nulls[i] {
			out = append(out, t)
		}
	}
	return out
}

// subset copies the given rows into a new column
func (c *Column) subset(rows []int) *Column {
	out := newEmptyColumn(c.Name, c.Kind, len(rows))
	for j, i := range rows {
		if c.nulls[i] {
			out.nulls[j] = true
			continue
		}
		switch c.Kind {
		case KindNumeric:
			out.numbers[j] = c.numbers[i]
		case KindDatetime:
			out.times[j] = c.times[i]
		default:
			out.texts[j] = c.texts[i]
		}
	}
	return out
}
