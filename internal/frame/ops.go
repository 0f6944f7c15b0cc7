package frame

import (
	"fmt"
	"sort"

	"github.com/tabula-data/tabula/internal/expr"
	"github.com/tabula-data/tabula/internal/value"
)

// Filter returns the rows for which every predicate evaluates true.
// Multiple predicates combine with implicit AND. Row order is
// preserved; a row whose predicate evaluates to Null is dropped.
func (t *Table) Filter(predicates ...expr.Expr) (*Table, error) {
	if err := rejectAggregates("filter", predicates); err != nil {
		return nil, err
	}

	keep := make([]bool, t.NumRows())
	for i := range keep {
		keep[i] = true
	}
	for _, p := range predicates {
		mask, err := EvalMask(t, p)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		for i, ok := range mask {
			keep[i] = keep[i] && ok
		}
	}

	indices := make([]int, 0, t.NumRows())
	for i, ok := range keep {
		if ok {
			indices = append(indices, i)
		}
	}
	return t.take(indices), nil
}

// Select projects the table to the given column expressions, in order.
// Row count and order are preserved. Output names follow expression
// naming (alias, else leftmost column reference).
func (t *Table) Select(exprs ...expr.Expr) (*Table, error) {
	if err := rejectAggregates("select", exprs); err != nil {
		return nil, err
	}

	cols := make([]Series, len(exprs))
	for i, e := range exprs {
		col, err := Eval(t, e)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		cols[i] = col
	}
	out, err := NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return out, nil
}

// WithColumns adds or replaces named columns. An expression whose
// output name matches an existing column replaces it in place;
// otherwise the column appends at the end. Row count is unchanged.
func (t *Table) WithColumns(exprs ...expr.Expr) (*Table, error) {
	if err := rejectAggregates("with_columns", exprs); err != nil {
		return nil, err
	}

	cols := make([]Series, len(t.cols))
	copy(cols, t.cols)
	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		byName[c.Name()] = i
	}

	for _, e := range exprs {
		col, err := Eval(t, e)
		if err != nil {
			return nil, fmt.Errorf("with_columns: %w", err)
		}
		if idx, ok := byName[col.Name()]; ok {
			cols[idx] = col
		} else {
			byName[col.Name()] = len(cols)
			cols = append(cols, col)
		}
	}
	out, err := NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("with_columns: %w", err)
	}
	return out, nil
}

// SortKey is one sort criterion: an expression to order by and its
// direction.
type SortKey struct {
	Expr       expr.Expr
	Descending bool
}

// By is a convenience constructor for an ascending SortKey.
func By(e expr.Expr) SortKey {
	return SortKey{Expr: e}
}

// ByDesc is a convenience constructor for a descending SortKey.
func ByDesc(e expr.Expr) SortKey {
	return SortKey{Expr: e, Descending: true}
}

// Sort returns the table's rows reordered by the given keys, applied
// in order. The sort is stable: ties keep their original relative row
// order, so sorting twice by the same keys is a no-op. Nulls sort
// first ascending, last descending.
func (t *Table) Sort(keys ...SortKey) (*Table, error) {
	exprs := make([]expr.Expr, len(keys))
	for i, k := range keys {
		exprs[i] = k.Expr
	}
	if err := rejectAggregates("sort", exprs); err != nil {
		return nil, err
	}

	keyCols := make([]Series, len(keys))
	for i, k := range keys {
		col, err := Eval(t, k.Expr)
		if err != nil {
			return nil, fmt.Errorf("sort: %w", err)
		}
		keyCols[i] = col
	}

	perm := make([]int, t.NumRows())
	for i := range perm {
		perm[i] = i
	}

	var sortErr error
	sort.SliceStable(perm, func(x, y int) bool {
		if sortErr != nil {
			return false
		}
		for i, col := range keyCols {
			c, ok := compareForSort(col, perm[x], perm[y])
			if !ok {
				sortErr = &TypeMismatchError{
					Op:     "sort",
					Left:   kindAt(col, perm[x]),
					Right:  kindAt(col, perm[y]),
					Detail: fmt.Sprintf("key %s has incomparable values", keys[i].Expr),
				}
				return false
			}
			if keys[i].Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	if sortErr != nil {
		return nil, fmt.Errorf("sort: %w", sortErr)
	}

	return t.take(perm), nil
}

func compareForSort(col Series, x, y int) (int, bool) {
	return value.Compare(col.Value(x), col.Value(y))
}

func kindAt(col Series, i int) value.Kind {
	return value.KindOf(col.Value(i))
}

// Slice returns the contiguous row window [start, start+length).
// A start beyond the row count yields an empty table; length clamps at
// the table end. Negative arguments clamp to zero.
func (t *Table) Slice(start, length int) *Table {
	rows := t.NumRows()
	if start < 0 {
		start = 0
	}
	if length < 0 {
		length = 0
	}
	if start > rows {
		start = rows
	}
	end := start + length
	if end > rows {
		end = rows
	}

	cols := make([]Series, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.window(start, end)
	}
	return mustTable(cols...)
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	return t.Slice(0, n)
}

// rejectAggregates errors when a row-level operation receives an
// aggregate expression. Aggregates only make sense under GroupBy/Agg.
func rejectAggregates(op string, exprs []expr.Expr) error {
	for _, e := range exprs {
		if e.HasAgg() {
			return fmt.Errorf("%s: aggregate expression %s is only valid in group_by/agg", op, e)
		}
	}
	return nil
}
