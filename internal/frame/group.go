package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tabula-data/tabula/internal/expr"
	"github.com/tabula-data/tabula/internal/value"
)

// GroupBy is the intermediate handle between GroupBy and Agg. It holds
// no evaluated state; partitioning happens when Agg runs.
type GroupBy struct {
	t    *Table
	keys []expr.Expr
}

// GroupBy begins a grouped aggregation over the given key expressions.
// Rows with identical key tuples (compared by value, with Null matching
// Null) form one group.
func (t *Table) GroupBy(keys ...expr.Expr) *GroupBy {
	return &GroupBy{t: t, keys: keys}
}

// Agg evaluates aggregate expressions over each group's rows,
// producing one output row per group. Output columns are the key
// columns followed by one column per aggregate. Groups appear in
// first-appearance order of their key tuple.
func (g *GroupBy) Agg(aggs ...expr.Expr) (*Table, error) {
	if len(g.keys) == 0 {
		return nil, fmt.Errorf("group_by: at least one key expression required")
	}
	if err := rejectAggregates("group_by keys", g.keys); err != nil {
		return nil, err
	}
	for _, a := range aggs {
		if !a.HasAgg() {
			return nil, fmt.Errorf("agg: expression %s contains no aggregate function", a)
		}
	}

	keyCols := make([]Series, len(g.keys))
	for i, k := range g.keys {
		col, err := Eval(g.t, k)
		if err != nil {
			return nil, fmt.Errorf("group_by: %w", err)
		}
		keyCols[i] = col
	}

	// Partition rows by key tuple, first appearance first.
	groupIdx := make(map[string]int)
	var groups [][]int
	var firstRow []int
	for row := 0; row < g.t.NumRows(); row++ {
		key := keyFingerprint(keyCols, row)
		idx, seen := groupIdx[key]
		if !seen {
			idx = len(groups)
			groupIdx[key] = idx
			groups = append(groups, nil)
			firstRow = append(firstRow, row)
		}
		groups[idx] = append(groups[idx], row)
	}

	// Key output columns carry the first-seen value of each group.
	outCols := make([]Series, 0, len(g.keys)+len(aggs))
	for i, col := range keyCols {
		vals := make([]value.Value, len(groups))
		for gi, row := range firstRow {
			vals[gi] = col.Value(row)
		}
		outCols = append(outCols, Series{name: g.keys[i].Name(), values: vals})
	}

	for _, a := range aggs {
		vals := make([]value.Value, len(groups))
		for gi, rows := range groups {
			scalar, err := evalScalar(g.t, rows, a.Node())
			if err != nil {
				return nil, fmt.Errorf("agg %s: %w", a, err)
			}
			vals[gi] = scalar
		}
		outCols = append(outCols, Series{name: a.Name(), values: vals})
	}

	out, err := NewTable(outCols...)
	if err != nil {
		return nil, fmt.Errorf("agg: %w", err)
	}
	return out, nil
}

// keyFingerprint builds a grouping identity for one row's key tuple.
// Every field is length-prefixed, so no byte sequence inside a field
// can masquerade as a field boundary: distinct tuples always produce
// distinct fingerprints.
func keyFingerprint(keyCols []Series, row int) string {
	var b strings.Builder
	for _, col := range keyCols {
		f := fieldFingerprint(col.Value(row))
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
	}
	return b.String()
}

// fieldFingerprint encodes one key value, kind-prefixed so Int(1) and
// Str("1") never collide. Int keys encode as exact decimals; a
// whole-valued Float in int64 range shares that encoding so Int(2)
// groups with Float(2.0) under a mixed-kind key column, without
// collapsing distinct Ints beyond float64 precision.
func fieldFingerprint(v value.Value) string {
	switch val := v.(type) {
	case value.Null:
		return "_"
	case value.Int:
		return "i" + strconv.FormatInt(int64(val), 10)
	case value.Float:
		f := float64(val)
		// MaxInt64 rounds up to 2^63 as a float64 and MinInt64 is
		// exact, so the int64 conversion below stays in range.
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return "i" + strconv.FormatInt(int64(f), 10)
		}
		return "f" + strconv.FormatFloat(f, 'g', -1, 64)
	case value.Str:
		return "s" + string(val)
	case value.Bool:
		return "b" + strconv.FormatBool(bool(val))
	default:
		return "?"
	}
}
