// Package table holds the in-memory tabular model shared by every pipeline stage.
//
// A column carries one inferred Kind, fixed at load time. Downstream stages switch on
// that tag instead of inspecting values again.
package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred type of a column
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDatetime:
		return "datetime"
	default:
		return "text"
	}
}

// MarshalText lets kinds travel as strings in JSON payloads
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DateLayout is used for datetimes that carry no clock component
const DateLayout = "2006-01-02"

// Value is a single typed cell
type Value struct {
	Kind   Kind
	Null   bool
	Number float64
	Time   time.Time
	Text   string
}

// NullValue creates a missing cell of the given kind
func NullValue(kind Kind) Value {
	return Value{Kind: kind, Null: true}
}

// NumberValue creates a numeric cell
func NumberValue(f float64) Value {
	return Value{Kind: KindNumeric, Number: f}
}

// TimeValue creates a datetime cell
func TimeValue(t time.Time) Value {
	return Value{Kind: KindDatetime, Time: t}
}

// TextValue creates a text cell
func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Key returns the canonical string form of the value. Keys identify values for
// distinct counting and categorical membership, and are what the exporter writes.
// Null values have an empty key.
func (v Value) Key() string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case KindNumeric:
		return FormatNumber(v.Number)
	case KindDatetime:
		return FormatTime(v.Time)
	default:
		return v.Text
	}
}

func (v Value) String() string {
	return v.Key()
}

// Compare orders two values of the same kind. Nulls sort first.
func (v Value) Compare(o Value) int {
	switch {
	case v.Null && o.Null:
		return 0
	case v.Null:
		return -1
	case o.Null:
		return 1
	}
	switch v.Kind {
	case KindNumeric:
		switch {
		case v.Number < o.Number:
			return -1
		case v.Number > o.Number:
			return 1
		}
		return 0
	case KindDatetime:
		return v.Time.Compare(o.Time)
	default:
		return strings.Compare(v.Text, o.Text)
	}
}

// FormatNumber renders a float without exponent or trailing zeros. Negative zero
// renders as 0.
func FormatNumber(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatTime renders midnight-UTC datetimes as plain dates, everything else as RFC3339
func FormatTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(DateLayout)
	}
	return u.Format(time.RFC3339Nano)
}
