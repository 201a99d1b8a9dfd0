package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataprobe/domain/core"
	"dataprobe/domain/filter"
	"dataprobe/domain/table"
	"dataprobe/internal/analysis/planner"
)

func day(s string) time.Time {
	d, err := time.Parse(table.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// salesTable has a low-cardinality region and channel, a wide numeric amount and a wide
// date column, with one null in amount.
func salesTable(t *testing.T) *table.Table {
	t.Helper()
	const n = 30
	regions := make([]string, n)
	channels := make([]string, n)
	amounts := make([]table.Value, n)
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		regions[i] = []string{"Norte", "Sul", "Leste"}[i%3]
		channels[i] = []string{"loja", "web"}[i%2]
		amounts[i] = table.NumberValue(float64(i * 10))
		dates[i] = day("2024-01-01").AddDate(0, 0, i)
	}
	amounts[4] = table.NullValue(table.KindNumeric)

	amount, err := table.NewColumn("amount", table.KindNumeric, amounts)
	require.NoError(t, err)
	return table.MustNew(
		table.TextColumn("region", regions),
		table.TextColumn("channel", channels),
		amount,
		table.DatetimeColumn("date", dates),
	)
}

func rowKeys(tbl *table.Table) []string {
	out := make([]string, tbl.NumRows())
	for i := range out {
		out[i] = fmt.Sprint(tbl.Row(i))
	}
	return out
}

func TestFullBoundsSelectionIsIdentity(t *testing.T) {
	tbl := salesTable(t)
	plan := planner.Plan(tbl)

	full := filter.Selections{}
	for _, cp := range plan.Columns {
		switch spec := cp.Spec.(type) {
		case filter.CategoricalChoice:
			full[cp.Column] = filter.CategorySelection{Keys: spec.Keys()}
		case filter.NumericRange:
			full[cp.Column] = filter.NumericSelection{Low: spec.Low, High: spec.High}
		case filter.DateRange:
			full[cp.Column] = filter.DateSelection{Start: spec.Start, End: spec.End}
		}
	}
	require.Len(t, full, 4)

	for name, sels := range map[string]filter.Selections{"full": full, "defaults": plan.Defaults(), "none": nil} {
		t.Run(name, func(t *testing.T) {
			res, err := Apply(tbl, plan, sels)
			require.NoError(t, err)
			assert.Equal(t, rowKeys(tbl), rowKeys(res.Table))
			assert.Equal(t, filter.StatusNoFilters, res.Status())
			assert.Empty(t, res.Active)
			assert.Nil(t, res.Warning())
		})
	}
}

func TestCategoricalFiltersCombineWithAnd(t *testing.T) {
	tbl := salesTable(t)
	plan := planner.Plan(tbl)

	onlyA, err := Apply(tbl, plan, filter.Selections{"region": filter.CategorySelection{Keys: []string{"Norte", "Sul"}}})
	require.NoError(t, err)
	onlyB, err := Apply(tbl, plan, filter.Selections{"channel": filter.CategorySelection{Keys: []string{"web"}}})
	require.NoError(t, err)
	both, err := Apply(tbl, plan, filter.Selections{
		"region":  filter.CategorySelection{Keys: []string{"Norte", "Sul"}},
		"channel": filter.CategorySelection{Keys: []string{"web"}},
	})
	require.NoError(t, err)

	inB := make(map[string]bool)
	for _, k := range rowKeys(onlyB.Table) {
		inB[k] = true
	}
	var want []string
	for _, k := range rowKeys(onlyA.Table) {
		if inB[k] {
			want = append(want, k)
		}
	}

	assert.Equal(t, want, rowKeys(both.Table))
	assert.Equal(t, []string{"region", "channel"}, both.Active)
	assert.Equal(t, filter.StatusFiltered, both.Status())
}

func TestDateRangeIsInclusiveOnBothBounds(t *testing.T) {
	tbl := table.MustNew(table.DatetimeColumn("d", []time.Time{day("2023-01-01"), day("2023-06-15"), day("2023-12-31")}))
	plan := filter.Plan{Columns: []filter.ColumnPlan{{
		Column: "d",
		Kind:   table.KindDatetime,
		Spec:   filter.DateRange{Start: day("2023-01-01"), End: day("2023-12-31")},
	}}}

	res, err := Apply(tbl, plan, filter.Selections{"d": filter.DateSelection{Start: day("2023-01-01"), End: day("2023-06-15")}})
	require.NoError(t, err)

	col, _ := res.Table.Column("d")
	require.Equal(t, 2, res.Table.NumRows())
	assert.Equal(t, "2023-01-01", col.Key(0))
	assert.Equal(t, "2023-06-15", col.Key(1))
}

func TestNumericRangeDropsNulls(t *testing.T) {
	tbl := salesTable(t)
	plan := planner.Plan(tbl)

	res, err := Apply(tbl, plan, filter.Selections{"amount": filter.NumericSelection{Low: 0, High: 100}})
	require.NoError(t, err)

	amount, _ := res.Table.Column("amount")
	assert.Equal(t, []float64{0, 10, 20, 30, 50, 60, 70, 80, 90, 100}, amount.Numbers())
	assert.Equal(t, 0, amount.NullCount())
}

func TestFullNumericRangeKeepsNulls(t *testing.T) {
	tbl := salesTable(t)
	plan := planner.Plan(tbl)

	res, err := Apply(tbl, plan, filter.Selections{"amount": filter.NumericSelection{Low: -1000, High: 1000}})
	require.NoError(t, err)
	assert.Equal(t, tbl.NumRows(), res.Table.NumRows())
}

func TestAbsentValueGivesEmptyResultNotError(t *testing.T) {
	tbl := salesTable(t)
	plan := planner.Plan(tbl)

	res, err := Apply(tbl, plan, filter.Selections{"region": filter.CategorySelection{Keys: []string{"Oeste"}}})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Table.NumRows())
	assert.Equal(t, tbl.ColumnNames(), res.Table.ColumnNames())
	assert.Equal(t, filter.StatusEmpty, res.Status())
	warning := res.Warning()
	require.NotNil(t, warning)
	assert.Equal(t, 30, warning.SourceRows)
	assert.Contains(t, warning.Error(), "no rows match")
}

func TestEmptyCategorySelectionDoesNotRestrict(t *testing.T) {
	tbl := salesTable(t)
	plan := planner.Plan(tbl)

	res, err := Apply(tbl, plan, filter.Selections{"region": filter.CategorySelection{Keys: nil}})
	require.NoError(t, err)
	assert.Equal(t, tbl.NumRows(), res.Table.NumRows())
	assert.Empty(t, res.Active)
}

func TestInvalidSelections(t *testing.T) {
	tbl := salesTable(t)
	plan := planner.Plan(tbl)

	tests := []struct {
		name string
		sels filter.Selections
	}{
		{"unknown column", filter.Selections{"ghost": filter.CategorySelection{Keys: []string{"x"}}}},
		{"variant mismatch", filter.Selections{"region": filter.NumericSelection{Low: 0, High: 1}}},
		{"inverted range", filter.Selections{"amount": filter.NumericSelection{Low: 50, High: 10}}},
		{"inverted dates", filter.Selections{"date": filter.DateSelection{Start: day("2024-02-01"), End: day("2024-01-01")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(tbl, plan, tt.sels)
			require.Error(t, err)
			assert.True(t, core.IsSelectionError(err))
		})
	}
}

func TestApplyLeavesSourceUntouched(t *testing.T) {
	tbl := salesTable(t)
	before := rowKeys(tbl)
	plan := planner.Plan(tbl)

	_, err := Apply(tbl, plan, filter.Selections{
		"channel": filter.CategorySelection{Keys: []string{"loja"}},
		"amount":  filter.NumericSelection{Low: 50, High: 150},
	})
	require.NoError(t, err)
	assert.Equal(t, before, rowKeys(tbl))
}
