package frame

import (
	"fmt"

	"github.com/tabula-data/tabula/internal/expr"
	"github.com/tabula-data/tabula/internal/value"
)

// Eval evaluates an expression against the table, producing a derived
// Series of length NumRows named per expr.Expr.Name.
//
// Evaluation is purely structural recursion over the tree: column
// leaves resolve by name against the table's columns, literals
// broadcast to the row count, operators combine element-wise.
func Eval(t *Table, e expr.Expr) (Series, error) {
	vals, err := evalNode(t, nil, e.Node())
	if err != nil {
		return Series{}, err
	}
	return Series{name: e.Name(), values: vals}, nil
}

// EvalMask evaluates a predicate expression to a per-row boolean mask.
// A missing value in the predicate result counts as false, so rows
// with Null never pass a filter.
func EvalMask(t *Table, e expr.Expr) ([]bool, error) {
	vals, err := evalNode(t, nil, e.Node())
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(vals))
	for i, v := range vals {
		switch b := v.(type) {
		case value.Bool:
			mask[i] = bool(b)
		case value.Null:
			mask[i] = false
		default:
			return nil, &TypeMismatchError{
				Op:     "filter",
				Left:   value.KindOf(v),
				Right:  value.KindBool,
				Detail: fmt.Sprintf("predicate %s must evaluate to booleans", e),
			}
		}
	}
	return mask, nil
}

// evalNode evaluates a node over the given row subset. rows == nil
// means the whole table. The result always has one value per row in
// scope.
func evalNode(t *Table, rows []int, n expr.Node) ([]value.Value, error) {
	count := t.NumRows()
	if rows != nil {
		count = len(rows)
	}

	switch node := n.(type) {
	case expr.ColumnNode:
		col, err := t.Column(node.Name)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			return col.Values(), nil
		}
		return col.take(rows).values, nil

	case expr.LiteralNode:
		vals := make([]value.Value, count)
		for i := range vals {
			vals[i] = node.Value
		}
		return vals, nil

	case expr.BinaryNode:
		left, err := evalNode(t, rows, node.Left)
		if err != nil {
			return nil, err
		}
		right, err := evalNode(t, rows, node.Right)
		if err != nil {
			return nil, err
		}
		vals := make([]value.Value, count)
		for i := range vals {
			v, err := applyBinary(node.Op, left[i], right[i])
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil

	case expr.UnaryNode:
		operand, err := evalNode(t, rows, node.Operand)
		if err != nil {
			return nil, err
		}
		vals := make([]value.Value, count)
		for i := range vals {
			v, err := applyUnary(node.Op, operand[i])
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return vals, nil

	case expr.AggNode:
		// An aggregate inside a row-level expression broadcasts its
		// scalar to every row in scope.
		scalar, err := evalAgg(t, rows, node)
		if err != nil {
			return nil, err
		}
		vals := make([]value.Value, count)
		for i := range vals {
			vals[i] = scalar
		}
		return vals, nil

	case expr.AliasNode:
		return evalNode(t, rows, node.Expr)

	default:
		return nil, fmt.Errorf("unknown expression node: %T", n)
	}
}

// evalScalar evaluates an aggregate expression over a row subset,
// producing a single scalar. Column references are only legal inside
// an aggregate function here; a bare reference has no single value for
// a group of rows.
func evalScalar(t *Table, rows []int, n expr.Node) (value.Value, error) {
	switch node := n.(type) {
	case expr.AggNode:
		return evalAgg(t, rows, node)

	case expr.LiteralNode:
		return node.Value, nil

	case expr.AliasNode:
		return evalScalar(t, rows, node.Expr)

	case expr.BinaryNode:
		left, err := evalScalar(t, rows, node.Left)
		if err != nil {
			return nil, err
		}
		right, err := evalScalar(t, rows, node.Right)
		if err != nil {
			return nil, err
		}
		return applyBinary(node.Op, left, right)

	case expr.UnaryNode:
		operand, err := evalScalar(t, rows, node.Operand)
		if err != nil {
			return nil, err
		}
		return applyUnary(node.Op, operand)

	case expr.ColumnNode:
		return nil, fmt.Errorf("column %q referenced outside an aggregate function in an agg expression", node.Name)

	default:
		return nil, fmt.Errorf("unknown expression node: %T", n)
	}
}

// evalAgg computes an aggregate function over the rows in scope.
// Nulls are skipped by every function except count() with no argument,
// which counts rows.
func evalAgg(t *Table, rows []int, node expr.AggNode) (value.Value, error) {
	count := t.NumRows()
	if rows != nil {
		count = len(rows)
	}

	if node.Arg == nil {
		if node.Fn != expr.AggCount {
			return nil, fmt.Errorf("aggregate %s requires an argument", node.Fn)
		}
		return value.Int(int64(count)), nil
	}

	vals, err := evalNode(t, rows, node.Arg)
	if err != nil {
		return nil, err
	}

	switch node.Fn {
	case expr.AggCount:
		n := int64(0)
		for _, v := range vals {
			if !value.IsNull(v) {
				n++
			}
		}
		return value.Int(n), nil

	case expr.AggSum, expr.AggMean:
		var (
			intSum   int64
			floatSum float64
			isFloat  bool
			n        int64
		)
		for _, v := range vals {
			switch val := v.(type) {
			case value.Null:
				continue
			case value.Int:
				intSum += int64(val)
				floatSum += float64(val)
				n++
			case value.Float:
				isFloat = true
				floatSum += float64(val)
				n++
			default:
				return nil, &TypeMismatchError{
					Op:     node.Fn.String(),
					Left:   value.KindOf(v),
					Right:  value.KindFloat,
					Detail: "numeric values required",
				}
			}
		}
		if node.Fn == expr.AggMean {
			if n == 0 {
				return value.Null{}, nil
			}
			return value.Float(floatSum / float64(n)), nil
		}
		if isFloat {
			return value.Float(floatSum), nil
		}
		return value.Int(intSum), nil

	case expr.AggMin, expr.AggMax:
		var best value.Value = value.Null{}
		for _, v := range vals {
			if value.IsNull(v) {
				continue
			}
			if value.IsNull(best) {
				best = v
				continue
			}
			c, ok := value.Compare(v, best)
			if !ok {
				return nil, &TypeMismatchError{
					Op:     node.Fn.String(),
					Left:   value.KindOf(v),
					Right:  value.KindOf(best),
					Detail: "values are not comparable",
				}
			}
			if (node.Fn == expr.AggMin && c < 0) || (node.Fn == expr.AggMax && c > 0) {
				best = v
			}
		}
		return best, nil

	default:
		return nil, fmt.Errorf("unknown aggregate function: %s", node.Fn)
	}
}

// applyBinary combines two cell values with a binary operator.
//
// Null propagation: arithmetic with a Null operand yields Null;
// comparisons involving Null yield false; and/or treat Null as false.
func applyBinary(op expr.BinaryOp, a, b value.Value) (value.Value, error) {
	switch {
	case op.IsComparison():
		return applyComparison(op, a, b)
	case op.IsBoolean():
		return applyBoolean(op, a, b)
	default:
		return applyArithmetic(op, a, b)
	}
}

func applyArithmetic(op expr.BinaryOp, a, b value.Value) (value.Value, error) {
	if value.IsNull(a) || value.IsNull(b) {
		return value.Null{}, nil
	}

	ia, aInt := a.(value.Int)
	ib, bInt := b.(value.Int)
	if aInt && bInt {
		switch op {
		case expr.OpAdd:
			return value.Int(int64(ia) + int64(ib)), nil
		case expr.OpSub:
			return value.Int(int64(ia) - int64(ib)), nil
		case expr.OpMul:
			return value.Int(int64(ia) * int64(ib)), nil
		case expr.OpDiv:
			if ib == 0 {
				return value.Null{}, nil
			}
			return value.Int(int64(ia) / int64(ib)), nil
		}
	}

	fa, aok := value.AsFloat(a)
	fb, bok := value.AsFloat(b)
	if !aok || !bok {
		return nil, &TypeMismatchError{Op: op.String(), Left: value.KindOf(a), Right: value.KindOf(b)}
	}
	switch op {
	case expr.OpAdd:
		return value.Float(fa + fb), nil
	case expr.OpSub:
		return value.Float(fa - fb), nil
	case expr.OpMul:
		return value.Float(fa * fb), nil
	case expr.OpDiv:
		// IEEE semantics: division by zero yields Inf/NaN.
		return value.Float(fa / fb), nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator: %s", op)
	}
}

func applyComparison(op expr.BinaryOp, a, b value.Value) (value.Value, error) {
	// Null never compares equal, greater, or less than anything.
	if value.IsNull(a) || value.IsNull(b) {
		return value.Bool(false), nil
	}
	c, ok := value.Compare(a, b)
	if !ok {
		return nil, &TypeMismatchError{Op: op.String(), Left: value.KindOf(a), Right: value.KindOf(b)}
	}
	switch op {
	case expr.OpEq:
		return value.Bool(c == 0), nil
	case expr.OpNe:
		return value.Bool(c != 0), nil
	case expr.OpGt:
		return value.Bool(c > 0), nil
	case expr.OpLt:
		return value.Bool(c < 0), nil
	case expr.OpGe:
		return value.Bool(c >= 0), nil
	case expr.OpLe:
		return value.Bool(c <= 0), nil
	default:
		return nil, fmt.Errorf("unknown comparison operator: %s", op)
	}
}

func applyBoolean(op expr.BinaryOp, a, b value.Value) (value.Value, error) {
	ba, err := asBool(op, a)
	if err != nil {
		return nil, err
	}
	bb, err := asBool(op, b)
	if err != nil {
		return nil, err
	}
	if op == expr.OpAnd {
		return value.Bool(ba && bb), nil
	}
	return value.Bool(ba || bb), nil
}

// asBool coerces a boolean operand, treating Null as false.
func asBool(op expr.BinaryOp, v value.Value) (bool, error) {
	switch val := v.(type) {
	case value.Bool:
		return bool(val), nil
	case value.Null:
		return false, nil
	default:
		return false, &TypeMismatchError{
			Op:     op.String(),
			Left:   value.KindOf(v),
			Right:  value.KindBool,
			Detail: "boolean operands required",
		}
	}
}

func applyUnary(op expr.UnaryOp, v value.Value) (value.Value, error) {
	if value.IsNull(v) {
		return value.Null{}, nil
	}
	switch op {
	case expr.OpNot:
		b, ok := v.(value.Bool)
		if !ok {
			return nil, &TypeMismatchError{
				Op:     op.String(),
				Left:   value.KindOf(v),
				Right:  value.KindBool,
				Detail: "boolean operand required",
			}
		}
		return value.Bool(!bool(b)), nil

	case expr.OpNeg:
		switch val := v.(type) {
		case value.Int:
			return value.Int(-int64(val)), nil
		case value.Float:
			return value.Float(-float64(val)), nil
		default:
			return nil, &TypeMismatchError{
				Op:     op.String(),
				Left:   value.KindOf(v),
				Right:  value.KindFloat,
				Detail: "numeric operand required",
			}
		}

	default:
		return nil, fmt.Errorf("unknown unary operator: %s", op)
	}
}
