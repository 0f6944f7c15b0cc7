package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-data/tabula/internal/expr"
	"github.com/tabula-data/tabula/internal/value"
)

func TestEvalColumnLeaf(t *testing.T) {
	tbl := incomes(t)

	col, err := Eval(tbl, expr.Col("income"))
	require.NoError(t, err)
	assert.Equal(t, "income", col.Name())
	assert.Equal(t, []value.Value{value.Int(100), value.Int(200), value.Int(300)}, col.Values())
}

func TestEvalMissingColumn(t *testing.T) {
	tbl := incomes(t)

	_, err := Eval(tbl, expr.Col("profit").Add(expr.Lit(1)))
	require.Error(t, err)
	assert.True(t, IsColumnNotFound(err))
}

func TestEvalLiteralBroadcast(t *testing.T) {
	tbl := incomes(t)

	col, err := Eval(tbl, expr.Lit(7))
	require.NoError(t, err)
	assert.Equal(t, 3, col.Len())
	assert.Equal(t, value.Int(7), col.Value(2))
}

func TestEvalIntArithmetic(t *testing.T) {
	tbl := incomes(t)

	col, err := Eval(tbl, expr.Col("income").Mul(expr.Lit(2)).Sub(expr.Lit(50)))
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(150), value.Int(350), value.Int(550)}, col.Values())
}

func TestEvalNumericPromotion(t *testing.T) {
	tbl := incomes(t)

	col, err := Eval(tbl, expr.Col("income").Mul(expr.Lit(0.5)))
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Float(50), value.Float(100), value.Float(150)}, col.Values())
}

func TestEvalIntDivisionTruncates(t *testing.T) {
	tbl, err := NewTable(Ints("a", 7, 9), Ints("b", 2, 3))
	require.NoError(t, err)

	col, err := Eval(tbl, expr.Col("a").Div(expr.Col("b")))
	require.NoError(t, err)
	assert.Equal(t, []value.Value{value.Int(3), value.Int(3)}, col.Values())
}

func TestEvalIntDivisionByZeroIsNull(t *testing.T) {
	tbl, err := NewTable(Ints("a", 7), Ints("b", 0))
	require.NoError(t, err)

	col, err := Eval(tbl, expr.Col("a").Div(expr.Col("b")))
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, col.Value(0))
}

func TestEvalFloatDivisionByZeroIsInf(t *testing.T) {
	tbl, err := NewTable(Floats("a", 1.0), Floats("b", 0.0))
	require.NoError(t, err)

	col, err := Eval(tbl, expr.Col("a").Div(expr.Col("b")))
	require.NoError(t, err)
	f, ok := value.AsFloat(col.Value(0))
	require.True(t, ok)
	assert.True(t, math.IsInf(f, 1))
}

func TestEvalNullPropagatesThroughArithmetic(t *testing.T) {
	tbl, err := NewTable(NewSeries("a", []value.Value{value.Int(1), value.Null{}}))
	require.NoError(t, err)

	col, err := Eval(tbl, expr.Col("a").Add(expr.Lit(1)))
	require.NoError(t, err)
	assert.Equal(t, value.Int(2), col.Value(0))
	assert.Equal(t, value.Null{}, col.Value(1))
}

func TestEvalArithmeticTypeMismatch(t *testing.T) {
	tbl := incomes(t)

	_, err := Eval(tbl, expr.Col("region").Add(expr.Lit(1)))
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))

	var te *TypeMismatchError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "+", te.Op)
	assert.Equal(t, value.KindStr, te.Left)
	assert.Equal(t, value.KindInt, te.Right)
}

func TestEvalComparisonTypeMismatchSurfacesAtEvalTime(t *testing.T) {
	// Construction is purely structural - the bad comparison only
	// fails once evaluated.
	bad := expr.Col("region").Gt(expr.Lit(10))

	tbl := incomes(t)
	_, err := Eval(tbl, bad)
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}

func TestEvalComparisonAgainstNullIsFalse(t *testing.T) {
	tbl, err := NewTable(NewSeries("a", []value.Value{value.Int(1), value.Null{}}))
	require.NoError(t, err)

	col, err := Eval(tbl, expr.Col("a").Eq(expr.Lit(1)))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(true), col.Value(0))
	assert.Equal(t, value.Bool(false), col.Value(1))

	// Ne against null is also false: null is not comparable at all.
	col, err = Eval(tbl, expr.Col("a").Ne(expr.Lit(1)))
	require.NoError(t, err)
	assert.Equal(t, value.Bool(false), col.Value(1))
}

func TestEvalBooleanOps(t *testing.T) {
	tbl := incomes(t)

	pred := expr.Col("region").Eq(expr.Lit("West")).And(expr.Col("income").Gt(expr.Lit(150)))
	mask, err := EvalMask(tbl, pred)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true}, mask)

	pred = expr.Col("region").Eq(expr.Lit("East")).Or(expr.Col("income").Ge(expr.Lit(300)))
	mask, err = EvalMask(tbl, pred)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true}, mask)

	pred = expr.Col("region").Eq(expr.Lit("West")).Not()
	mask, err = EvalMask(tbl, pred)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, mask)
}

func TestEvalBooleanOpRejectsNonBool(t *testing.T) {
	tbl := incomes(t)

	_, err := Eval(tbl, expr.Col("income").And(expr.Lit(true)))
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}

func TestEvalMaskRejectsNonBooleanResult(t *testing.T) {
	tbl := incomes(t)

	_, err := EvalMask(tbl, expr.Col("income").Add(expr.Lit(1)))
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}

func TestEvalUnaryNeg(t *testing.T) {
	tbl := incomes(t)

	col, err := Eval(tbl, expr.Col("income").Neg())
	require.NoError(t, err)
	assert.Equal(t, value.Int(-100), col.Value(0))
}

func TestEvalAggBroadcasts(t *testing.T) {
	tbl := incomes(t)

	col, err := Eval(tbl, expr.Col("income").Mean())
	require.NoError(t, err)
	assert.Equal(t, 3, col.Len())
	assert.Equal(t, value.Float(200), col.Value(0))
	assert.Equal(t, value.Float(200), col.Value(2))
}

func TestEvalAliasNamesOutput(t *testing.T) {
	tbl := incomes(t)

	col, err := Eval(tbl, expr.Col("income").Mul(expr.Lit(2)).Alias("double"))
	require.NoError(t, err)
	assert.Equal(t, "double", col.Name())
}

func TestAggregateFunctions(t *testing.T) {
	tbl, err := NewTable(NewSeries("x", []value.Value{
		value.Int(4), value.Null{}, value.Int(1), value.Int(7),
	}))
	require.NoError(t, err)

	tests := []struct {
		name string
		e    expr.Expr
		want value.Value
	}{
		{"count_rows", expr.Count(), value.Int(4)},
		{"count_values", expr.Col("x").CountValues(), value.Int(3)},
		{"sum", expr.Col("x").Sum(), value.Int(12)},
		{"mean", expr.Col("x").Mean(), value.Float(4)},
		{"min", expr.Col("x").Min(), value.Int(1)},
		{"max", expr.Col("x").Max(), value.Int(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := Eval(tbl, tt.e)
			require.NoError(t, err)
			assert.Equal(t, tt.want, col.Value(0))
		})
	}
}

func TestAggregateAllNull(t *testing.T) {
	tbl, err := NewTable(NewSeries("x", []value.Value{value.Null{}, value.Null{}}))
	require.NoError(t, err)

	col, err := Eval(tbl, expr.Col("x").Mean())
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, col.Value(0))

	col, err = Eval(tbl, expr.Col("x").Max())
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, col.Value(0))

	col, err = Eval(tbl, expr.Col("x").Sum())
	require.NoError(t, err)
	assert.Equal(t, value.Int(0), col.Value(0))
}

func TestAggregateRejectsStrings(t *testing.T) {
	tbl := incomes(t)

	_, err := Eval(tbl, expr.Col("region").Sum())
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}
