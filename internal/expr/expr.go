// Package expr builds deferred column expressions.
//
// An expression is a tree of sealed Node variants: leaves reference a
// column by name or hold a literal, interior nodes apply operators or
// aggregate functions. Construction is purely structural - nothing is
// resolved or type-checked until the tree is evaluated against a table.
package expr

import (
	"fmt"
	"strings"

	"github.com/tabula-data/tabula/internal/value"
)

// Node is a sealed interface for expression tree nodes.
//
// Only types in this package implement it. The marker method pattern
// prevents external implementations and enables exhaustive type
// switches in the evaluator.
type Node interface {
	exprNode() // Marker method - seals interface to this package
}

// ColumnNode references a named column of the table being evaluated.
// Resolution happens at evaluation time; an unknown name surfaces as
// ColumnNotFoundError from the evaluator.
type ColumnNode struct {
	Name string
}

func (ColumnNode) exprNode() {}

// LiteralNode holds a constant value, broadcast to the table's row count.
type LiteralNode struct {
	Value value.Value
}

func (LiteralNode) exprNode() {}

// BinaryNode applies an arithmetic, comparison, or boolean operator to
// two sub-expressions.
type BinaryNode struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (BinaryNode) exprNode() {}

// UnaryNode applies a unary operator (boolean not, numeric negate).
type UnaryNode struct {
	Op      UnaryOp
	Operand Node
}

func (UnaryNode) exprNode() {}

// AggNode applies an aggregate function over the rows in scope,
// producing one scalar. Arg is nil for count() with no argument,
// which counts rows rather than non-null values.
type AggNode struct {
	Fn  AggFunc
	Arg Node
}

func (AggNode) exprNode() {}

// AliasNode renames the output column of its sub-expression.
type AliasNode struct {
	Name string
	Expr Node
}

func (AliasNode) exprNode() {}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpAnd
	OpOr
)

// String returns the operator's surface syntax, used in error messages
// and expression debug output.
func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGe:
		return ">="
	case OpLe:
		return "<="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// IsComparison reports whether the operator produces a boolean column.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe:
		return true
	default:
		return false
	}
}

// IsBoolean reports whether the operator combines boolean operands.
func (op BinaryOp) IsBoolean() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "not"
	case OpNeg:
		return "-"
	default:
		return fmt.Sprintf("unaryop(%d)", int(op))
	}
}

// AggFunc identifies an aggregate function.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggMean
	AggMin
	AggMax
)

func (fn AggFunc) String() string {
	switch fn {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMean:
		return "mean"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	default:
		return fmt.Sprintf("agg(%d)", int(fn))
	}
}

// Expr is the fluent handle over a Node tree.
//
// Expressions are values: every combinator returns a new Expr and the
// receiver is never modified, so sub-expressions can be shared freely.
//
//	expr.Col("income").Mul(expr.Lit(2)).Alias("doubled")
//	expr.Col("region").Eq(expr.Lit("West")).And(expr.Col("income").Gt(expr.Lit(100)))
type Expr struct {
	node Node
}

// Col references a named column.
func Col(name string) Expr {
	return Expr{node: ColumnNode{Name: name}}
}

// Lit wraps a constant. Accepted Go types are int/int32/int64,
// float32/float64, string, bool, nil (missing), and value.Value.
// Anything else is a programming error and panics.
func Lit(v any) Expr {
	val, err := value.FromGo(v)
	if err != nil {
		panic(fmt.Sprintf("expr.Lit: %v", err))
	}
	return Expr{node: LiteralNode{Value: val}}
}

// Wrap adopts an existing node tree. Used by the pipeline compiler.
func Wrap(n Node) Expr {
	return Expr{node: n}
}

// Node returns the underlying tree for evaluation.
func (e Expr) Node() Node {
	return e.node
}

func (e Expr) binary(op BinaryOp, other Expr) Expr {
	return Expr{node: BinaryNode{Op: op, Left: e.node, Right: other.node}}
}

// Add returns e + other.
func (e Expr) Add(other Expr) Expr { return e.binary(OpAdd, other) }

// Sub returns e - other.
func (e Expr) Sub(other Expr) Expr { return e.binary(OpSub, other) }

// Mul returns e * other.
func (e Expr) Mul(other Expr) Expr { return e.binary(OpMul, other) }

// Div returns e / other. Integer division truncates; float division
// follows IEEE semantics.
func (e Expr) Div(other Expr) Expr { return e.binary(OpDiv, other) }

// Eq returns the predicate e == other.
func (e Expr) Eq(other Expr) Expr { return e.binary(OpEq, other) }

// Ne returns the predicate e != other.
func (e Expr) Ne(other Expr) Expr { return e.binary(OpNe, other) }

// Gt returns the predicate e > other.
func (e Expr) Gt(other Expr) Expr { return e.binary(OpGt, other) }

// Lt returns the predicate e < other.
func (e Expr) Lt(other Expr) Expr { return e.binary(OpLt, other) }

// Ge returns the predicate e >= other.
func (e Expr) Ge(other Expr) Expr { return e.binary(OpGe, other) }

// Le returns the predicate e <= other.
func (e Expr) Le(other Expr) Expr { return e.binary(OpLe, other) }

// And returns the conjunction of two predicates.
func (e Expr) And(other Expr) Expr { return e.binary(OpAnd, other) }

// Or returns the disjunction of two predicates.
func (e Expr) Or(other Expr) Expr { return e.binary(OpOr, other) }

// Not negates a predicate.
func (e Expr) Not() Expr {
	return Expr{node: UnaryNode{Op: OpNot, Operand: e.node}}
}

// Neg negates a numeric expression.
func (e Expr) Neg() Expr {
	return Expr{node: UnaryNode{Op: OpNeg, Operand: e.node}}
}

// Alias names the output column produced by this expression.
func (e Expr) Alias(name string) Expr {
	return Expr{node: AliasNode{Name: name, Expr: e.node}}
}

// Sum aggregates to the sum of non-null values.
func (e Expr) Sum() Expr { return Expr{node: AggNode{Fn: AggSum, Arg: e.node}} }

// Mean aggregates to the arithmetic mean of non-null values.
func (e Expr) Mean() Expr { return Expr{node: AggNode{Fn: AggMean, Arg: e.node}} }

// Min aggregates to the smallest non-null value.
func (e Expr) Min() Expr { return Expr{node: AggNode{Fn: AggMin, Arg: e.node}} }

// Max aggregates to the largest non-null value.
func (e Expr) Max() Expr { return Expr{node: AggNode{Fn: AggMax, Arg: e.node}} }

// CountValues aggregates to the number of non-null values of e.
func (e Expr) CountValues() Expr { return Expr{node: AggNode{Fn: AggCount, Arg: e.node}} }

// Count aggregates to the number of rows in scope.
func Count() Expr {
	return Expr{node: AggNode{Fn: AggCount, Arg: nil}}
}

// Name returns the output column name: the innermost alias if one is
// set, otherwise the leftmost column reference, otherwise "literal".
func (e Expr) Name() string {
	return nodeName(e.node)
}

func nodeName(n Node) string {
	switch node := n.(type) {
	case AliasNode:
		return node.Name
	case ColumnNode:
		return node.Name
	case LiteralNode:
		return "literal"
	case BinaryNode:
		return nodeName(node.Left)
	case UnaryNode:
		return nodeName(node.Operand)
	case AggNode:
		if node.Arg == nil {
			return "count"
		}
		return nodeName(node.Arg)
	default:
		return "expr"
	}
}

// String renders the tree in surface syntax for diagnostics.
func (e Expr) String() string {
	return nodeString(e.node)
}

func nodeString(n Node) string {
	switch node := n.(type) {
	case ColumnNode:
		return "col(" + node.Name + ")"
	case LiteralNode:
		if value.KindOf(node.Value) == value.KindStr {
			return fmt.Sprintf("%q", string(node.Value.(value.Str)))
		}
		return value.String(node.Value)
	case BinaryNode:
		return fmt.Sprintf("(%s %s %s)", nodeString(node.Left), node.Op, nodeString(node.Right))
	case UnaryNode:
		if node.Op == OpNeg {
			return "-" + nodeString(node.Operand)
		}
		return "not " + nodeString(node.Operand)
	case AggNode:
		if node.Arg == nil {
			return "count()"
		}
		return fmt.Sprintf("%s(%s)", node.Fn, nodeString(node.Arg))
	case AliasNode:
		return fmt.Sprintf("%s as %s", nodeString(node.Expr), node.Name)
	default:
		return fmt.Sprintf("node(%T)", n)
	}
}

// HasAgg reports whether the tree contains an aggregate node.
// Aggregates are only legal inside group_by/agg; the table operations
// reject them elsewhere.
func (e Expr) HasAgg() bool {
	return nodeHasAgg(e.node)
}

func nodeHasAgg(n Node) bool {
	switch node := n.(type) {
	case AggNode:
		return true
	case BinaryNode:
		return nodeHasAgg(node.Left) || nodeHasAgg(node.Right)
	case UnaryNode:
		return nodeHasAgg(node.Operand)
	case AliasNode:
		return nodeHasAgg(node.Expr)
	default:
		return false
	}
}

// Columns returns the distinct column names referenced by the tree,
// in first-appearance order.
func (e Expr) Columns() []string {
	var names []string
	seen := map[string]bool{}
	var walk func(Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case ColumnNode:
			if !seen[node.Name] {
				seen[node.Name] = true
				names = append(names, node.Name)
			}
		case BinaryNode:
			walk(node.Left)
			walk(node.Right)
		case UnaryNode:
			walk(node.Operand)
		case AliasNode:
			walk(node.Expr)
		case AggNode:
			if node.Arg != nil {
				walk(node.Arg)
			}
		}
	}
	walk(e.node)
	return names
}

// Format joins rendered expressions for log and error output.
func Format(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
