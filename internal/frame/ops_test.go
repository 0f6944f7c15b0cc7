package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-data/tabula/internal/expr"
	"github.com/tabula-data/tabula/internal/value"
)

func TestFilterWorkedExample(t *testing.T) {
	// region=[West,East,West], income=[100,200,300]:
	// filter(region=="West") keeps rows 0 and 2, in that order.
	tbl := incomes(t)

	out, err := tbl.Filter(expr.Col("region").Eq(expr.Lit("West")))
	require.NoError(t, err)

	assert.Equal(t, 2, out.NumRows())
	assert.Equal(t, []value.Value{value.Str("West"), value.Int(100)}, out.Row(0))
	assert.Equal(t, []value.Value{value.Str("West"), value.Int(300)}, out.Row(1))
}

func TestFilterShrinksAndSatisfies(t *testing.T) {
	tbl := incomes(t)
	pred := expr.Col("income").Gt(expr.Lit(150))

	out, err := tbl.Filter(pred)
	require.NoError(t, err)

	assert.LessOrEqual(t, out.NumRows(), tbl.NumRows())
	mask, err := EvalMask(out, pred)
	require.NoError(t, err)
	for i, ok := range mask {
		assert.True(t, ok, "row %d does not satisfy the predicate", i)
	}
}

func TestFilterMultiplePredicatesAnd(t *testing.T) {
	tbl := incomes(t)

	out, err := tbl.Filter(
		expr.Col("region").Eq(expr.Lit("West")),
		expr.Col("income").Gt(expr.Lit(150)),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())
	assert.Equal(t, value.Int(300), out.Row(0)[1])
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tbl := incomes(t)

	_, err := tbl.Filter(expr.Col("income").Gt(expr.Lit(1000)))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
}

func TestFilterRejectsAggregates(t *testing.T) {
	tbl := incomes(t)

	_, err := tbl.Filter(expr.Col("income").Gt(expr.Col("income").Mean()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group_by/agg")
}

func TestSelectProjection(t *testing.T) {
	tbl := incomes(t)

	out, err := tbl.Select(expr.Col("income"))
	require.NoError(t, err)
	assert.Equal(t, []string{"income"}, out.ColumnNames())
	assert.Equal(t, 3, out.NumRows())
}

func TestSelectComputedColumn(t *testing.T) {
	tbl := incomes(t)

	out, err := tbl.Select(
		expr.Col("region"),
		expr.Col("income").Mul(expr.Lit(2)).Alias("double"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "double"}, out.ColumnNames())
	col, err := out.Column("double")
	require.NoError(t, err)
	assert.Equal(t, value.Int(600), col.Value(2))
}

func TestSelectComposability(t *testing.T) {
	// select(a,b) then select(a) equals select(a) directly.
	tbl := incomes(t)

	twice, err := tbl.Select(expr.Col("region"), expr.Col("income"))
	require.NoError(t, err)
	twice, err = twice.Select(expr.Col("region"))
	require.NoError(t, err)

	once, err := tbl.Select(expr.Col("region"))
	require.NoError(t, err)

	assert.True(t, twice.Equal(once))
}

func TestSelectDuplicateNames(t *testing.T) {
	tbl := incomes(t)

	_, err := tbl.Select(expr.Col("income"), expr.Col("income"))
	require.Error(t, err)
	assert.True(t, IsShapeError(err))
}

func TestWithColumnsAddAndReplace(t *testing.T) {
	tbl := incomes(t)

	out, err := tbl.WithColumns(
		expr.Col("income").Mul(expr.Lit(2)).Alias("double"),
		expr.Col("income").Add(expr.Lit(1)).Alias("income"),
	)
	require.NoError(t, err)

	// "double" appends, "income" replaces in place.
	assert.Equal(t, []string{"region", "income", "double"}, out.ColumnNames())
	income, err := out.Column("income")
	require.NoError(t, err)
	assert.Equal(t, value.Int(101), income.Value(0))
	assert.Equal(t, 3, out.NumRows())

	// input untouched
	orig, err := tbl.Column("income")
	require.NoError(t, err)
	assert.Equal(t, value.Int(100), orig.Value(0))
}

func TestSortSingleKey(t *testing.T) {
	tbl := incomes(t)

	out, err := tbl.Sort(ByDesc(expr.Col("income")))
	require.NoError(t, err)
	col, err := out.Column("income")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(300), value.Int(200), value.Int(100)}, col.Values())
}

func TestSortStableAndIdempotent(t *testing.T) {
	tbl, err := NewTable(
		Strs("k", "b", "a", "b", "a"),
		Ints("seq", 1, 2, 3, 4),
	)
	require.NoError(t, err)

	once, err := tbl.Sort(By(expr.Col("k")))
	require.NoError(t, err)

	// Ties keep original row order.
	seq, err := once.Column("seq")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(2), value.Int(4), value.Int(1), value.Int(3)}, seq.Values())

	// Sorting again changes nothing.
	twice, err := once.Sort(By(expr.Col("k")))
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
}

func TestSortMultiKey(t *testing.T) {
	tbl, err := NewTable(
		Strs("region", "West", "East", "West", "East"),
		Ints("income", 100, 200, 300, 50),
	)
	require.NoError(t, err)

	out, err := tbl.Sort(By(expr.Col("region")), ByDesc(expr.Col("income")))
	require.NoError(t, err)

	income, err := out.Column("income")
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(200), value.Int(50), value.Int(300), value.Int(100)}, income.Values())
}

func TestSortNullsFirstAscLastDesc(t *testing.T) {
	tbl, err := NewTable(NewSeries("x", []value.Value{value.Int(2), value.Null{}, value.Int(1)}))
	require.NoError(t, err)

	asc, err := tbl.Sort(By(expr.Col("x")))
	require.NoError(t, err)
	col, _ := asc.Column("x")
	assert.Equal(t, []value.Value{value.Null{}, value.Int(1), value.Int(2)}, col.Values())

	desc, err := tbl.Sort(ByDesc(expr.Col("x")))
	require.NoError(t, err)
	col, _ = desc.Column("x")
	assert.Equal(t, []value.Value{value.Int(2), value.Int(1), value.Null{}}, col.Values())
}

func TestSortIncomparableKey(t *testing.T) {
	tbl, err := NewTable(NewSeries("x", []value.Value{value.Int(1), value.Str("a")}))
	require.NoError(t, err)

	_, err = tbl.Sort(By(expr.Col("x")))
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}

func TestSliceFullRangeIdentity(t *testing.T) {
	tbl := incomes(t)
	assert.True(t, tbl.Slice(0, tbl.NumRows()).Equal(tbl))
}

func TestSliceWindow(t *testing.T) {
	tbl := incomes(t)

	out := tbl.Slice(1, 1)
	assert.Equal(t, 1, out.NumRows())
	assert.Equal(t, value.Str("East"), out.Row(0)[0])
}

func TestSliceClampsAndEmpties(t *testing.T) {
	tbl := incomes(t)

	// length clamps at table end
	assert.Equal(t, 2, tbl.Slice(1, 100).NumRows())

	// start beyond row count yields empty, not an error
	assert.Equal(t, 0, tbl.Slice(10, 5).NumRows())

	// negative arguments clamp to zero
	assert.Equal(t, 2, tbl.Slice(-1, 2).NumRows())
	assert.Equal(t, 0, tbl.Slice(0, -1).NumRows())
}

func TestHead(t *testing.T) {
	tbl := incomes(t)
	assert.Equal(t, 2, tbl.Head(2).NumRows())
	assert.Equal(t, 3, tbl.Head(10).NumRows())
}
