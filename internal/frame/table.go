// Package frame implements the immutable columnar Table and its
// transform operations.
//
// A Table is an ordered collection of equal-length named Series.
// Every operation returns a new Table and never mutates its input, so
// transforms chain safely:
//
//	out, err := t.Filter(expr.Col("region").Eq(expr.Lit("West")))
//
// Expressions are evaluated by the structural evaluator in eval.go;
// errors surface as the structured types in errors.go.
package frame

import (
	"fmt"

	"github.com/tabula-data/tabula/internal/value"
)

// Table is an immutable ordered collection of equal-length named
// columns. Row order is significant and preserved by every operation
// except Sort (which reorders) and GroupBy/Agg (which reduces).
type Table struct {
	cols   []Series
	byName map[string]int
}

// NewTable constructs a Table from columns. Construction is
// all-or-nothing: a length mismatch or duplicate column name returns a
// ShapeError and no table.
func NewTable(cols ...Series) (*Table, error) {
	t := &Table{
		cols:   make([]Series, len(cols)),
		byName: make(map[string]int, len(cols)),
	}
	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	for i, c := range cols {
		if c.Len() != rows {
			return nil, &ShapeError{
				Op:     "new_table",
				Column: c.Name(),
				Want:   rows,
				Got:    c.Len(),
			}
		}
		if _, dup := t.byName[c.Name()]; dup {
			return nil, &ShapeError{
				Op:     "new_table",
				Column: c.Name(),
				Detail: fmt.Sprintf("duplicate column name %q", c.Name()),
			}
		}
		t.cols[i] = c
		t.byName[c.Name()] = i
	}
	return t, nil
}

// mustTable wraps NewTable for internal call sites that construct from
// columns already known to satisfy the invariants.
func mustTable(cols ...Series) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(fmt.Sprintf("frame: internal table construction failed: %v", err))
	}
	return t
}

// NumRows returns the table's row count.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.cols)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name()
	}
	return names
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Column returns the named column, or ColumnNotFoundError.
func (t *Table) Column(name string) (Series, error) {
	idx, ok := t.byName[name]
	if !ok {
		return Series{}, &ColumnNotFoundError{Column: name, Available: t.ColumnNames()}
	}
	return t.cols[idx], nil
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) Series {
	return t.cols[i]
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []value.Value {
	row := make([]value.Value, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Value(i)
	}
	return row
}

// Equal reports whether two tables have identical columns in the same
// order with identical values.
func (t *Table) Equal(other *Table) bool {
	if len(t.cols) != len(other.cols) {
		return false
	}
	for i, c := range t.cols {
		if !c.Equal(other.cols[i]) {
			return false
		}
	}
	return true
}

// take builds a new table from the given row indices, preserving
// column order and names.
func (t *Table) take(indices []int) *Table {
	cols := make([]Series, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(indices)
	}
	return mustTable(cols...)
}
