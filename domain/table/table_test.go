package table

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMismatchedLengths(t *testing.T) {
	_, err := New(
		NumericColumn("a", []float64{1, 2, 3}),
		TextColumn("b", []string{"x", "y"}),
	)
	assert.Error(t, err)
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New(
		NumericColumn("a", []float64{1}),
		TextColumn("a", []string{"x"}),
	)
	assert.Error(t, err)
}

func TestNewColumnRejectsForeignKinds(t *testing.T) {
	_, err := NewColumn("a", KindNumeric, []Value{NumberValue(1), TextValue("x")})
	assert.Error(t, err)
}

func TestSubsetCopiesRowsAndLeavesSourceUntouched(t *testing.T) {
	col, err := NewColumn("n", KindNumeric, []Value{NumberValue(1), NullValue(KindNumeric), NumberValue(3)})
	require.NoError(t, err)
	src := MustNew(col, TextColumn("s", []string{"a", "b", "c"}))

	sub := src.Subset([]int{2, 1})

	require.Equal(t, 2, sub.NumRows())
	n, _ := sub.Column("n")
	assert.Equal(t, 3.0, n.Number(0))
	assert.True(t, n.IsNull(1))
	s, _ := sub.Column("s")
	assert.Equal(t, "c", s.Text(0))

	assert.Equal(t, 3, src.NumRows())
	orig, _ := src.Column("s")
	assert.Equal(t, "a", orig.Text(0))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "3", NumberValue(3).Key())
	assert.Equal(t, "3.25", NumberValue(3.25).Key())
	assert.Equal(t, "-0.5", NumberValue(-0.5).Key())
	assert.Equal(t, "0", NumberValue(math.Copysign(0, -1)).Key())
	assert.Equal(t, "2023-01-01", TimeValue(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)).Key())
	assert.Equal(t, "2023-01-01T10:30:00Z", TimeValue(time.Date(2023, 1, 1, 10, 30, 0, 0, time.UTC)).Key())
	assert.Equal(t, "", NullValue(KindText).Key())
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, NumberValue(1).Compare(NumberValue(2)))
	assert.Equal(t, 1, TextValue("b").Compare(TextValue("a")))
	assert.Equal(t, -1, NullValue(KindNumeric).Compare(NumberValue(-100)))
	d1 := TimeValue(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	d2 := TimeValue(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, -1, d1.Compare(d2))
	assert.Equal(t, 0, d2.Compare(d2))
}

func TestNumbersSkipsNulls(t *testing.T) {
	col, err := NewColumn("n", KindNumeric, []Value{NumberValue(4), NullValue(KindNumeric), NumberValue(2)})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 2}, col.Numbers())
	assert.Equal(t, 1, col.NullCount())
	assert.Nil(t, TextColumn("t", []string{"x"}).Numbers())
}

func TestHead(t *testing.T) {
	tbl := MustNew(NumericColumn("a", []float64{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, 5, tbl.Head(5).NumRows())
	assert.Equal(t, 6, tbl.Head(50).NumRows())
	assert.Equal(t, 0, tbl.Head(-1).NumRows())
}
