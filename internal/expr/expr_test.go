package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-data/tabula/internal/value"
)

func TestNodeSealed(t *testing.T) {
	// Verify all types implement Node (compile-time check via assignment)
	var _ Node = ColumnNode{}
	var _ Node = LiteralNode{}
	var _ Node = BinaryNode{}
	var _ Node = UnaryNode{}
	var _ Node = AggNode{}
	var _ Node = AliasNode{}
}

func TestColBuildsLeaf(t *testing.T) {
	e := Col("income")
	col, ok := e.Node().(ColumnNode)
	require.True(t, ok)
	assert.Equal(t, "income", col.Name)
}

func TestLitConversions(t *testing.T) {
	assert.Equal(t, LiteralNode{Value: value.Int(5)}, Lit(5).Node())
	assert.Equal(t, LiteralNode{Value: value.Float(2.5)}, Lit(2.5).Node())
	assert.Equal(t, LiteralNode{Value: value.Str("w")}, Lit("w").Node())
	assert.Equal(t, LiteralNode{Value: value.Bool(true)}, Lit(true).Node())
	assert.Equal(t, LiteralNode{Value: value.Null{}}, Lit(nil).Node())
}

func TestLitPanicsOnUnsupported(t *testing.T) {
	assert.Panics(t, func() { Lit(struct{}{}) })
}

func TestCombinatorsBuildTrees(t *testing.T) {
	e := Col("a").Add(Lit(1)).Gt(Col("b"))

	cmp, ok := e.Node().(BinaryNode)
	require.True(t, ok)
	assert.Equal(t, OpGt, cmp.Op)

	add, ok := cmp.Left.(BinaryNode)
	require.True(t, ok)
	assert.Equal(t, OpAdd, add.Op)
	assert.Equal(t, ColumnNode{Name: "a"}, add.Left)
	assert.Equal(t, LiteralNode{Value: value.Int(1)}, add.Right)

	assert.Equal(t, ColumnNode{Name: "b"}, cmp.Right)
}

func TestCombinatorsDoNotMutateReceiver(t *testing.T) {
	base := Col("x")
	_ = base.Add(Lit(1))
	_ = base.Not()

	// base is still a bare column reference
	assert.Equal(t, ColumnNode{Name: "x"}, base.Node())
}

func TestName(t *testing.T) {
	tests := []struct {
		name string
		e    Expr
		want string
	}{
		{"column", Col("region"), "region"},
		{"alias", Col("region").Alias("r"), "r"},
		{"computed", Col("income").Mul(Lit(2)), "income"},
		{"aliased_computed", Col("income").Mul(Lit(2)).Alias("double"), "double"},
		{"literal", Lit(1), "literal"},
		{"agg", Col("income").Mean(), "income"},
		{"bare_count", Count(), "count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.Name())
		})
	}
}

func TestString(t *testing.T) {
	e := Col("region").Eq(Lit("West")).And(Col("income").Gt(Lit(100)))
	assert.Equal(t, `((col(region) == "West") and (col(income) > 100))`, e.String())

	assert.Equal(t, "mean(col(income))", Col("income").Mean().String())
	assert.Equal(t, "count()", Count().String())
}

func TestHasAgg(t *testing.T) {
	assert.False(t, Col("a").Add(Lit(1)).HasAgg())
	assert.True(t, Col("a").Sum().HasAgg())
	assert.True(t, Col("a").Sum().Div(Count()).HasAgg())
	assert.True(t, Col("a").Mean().Alias("m").HasAgg())
}

func TestColumns(t *testing.T) {
	e := Col("a").Add(Col("b")).Gt(Col("a").Mul(Lit(2)))
	assert.Equal(t, []string{"a", "b"}, e.Columns())

	assert.Empty(t, Lit(1).Columns())
}

func TestOpClassification(t *testing.T) {
	assert.True(t, OpEq.IsComparison())
	assert.True(t, OpLe.IsComparison())
	assert.False(t, OpAdd.IsComparison())
	assert.True(t, OpAnd.IsBoolean())
	assert.False(t, OpGt.IsBoolean())
}
