package frame

import (
	"fmt"

	"github.com/tabula-data/tabula/internal/value"
)

// JoinType selects the join semantics.
type JoinType int

const (
	// JoinInner keeps only rows whose keys match in both tables.
	JoinInner JoinType = iota

	// JoinLeft keeps every left row, filling right-side columns with
	// missing markers when no match exists.
	JoinLeft
)

// String returns the join type's name as used in pipeline files.
func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	default:
		return fmt.Sprintf("join(%d)", int(j))
	}
}

// ParseJoinType parses a join type name.
func ParseJoinType(s string) (JoinType, error) {
	switch s {
	case "inner":
		return JoinInner, nil
	case "left":
		return JoinLeft, nil
	default:
		return 0, fmt.Errorf("unknown join type %q: must be inner or left", s)
	}
}

// Join combines two tables on exact key equality over the named
// columns. Every right-side match produces one output row, so multiple
// matches multiply rows. Left row order is preserved; matches for one
// left row appear in right-table order. Null keys never match.
//
// Output columns are the left table's columns followed by the right
// table's non-key columns; a right column whose name collides with a
// left column is suffixed "_right".
func (t *Table) Join(other *Table, on []string, how JoinType) (*Table, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("join: at least one key column required")
	}

	leftKeys := make([]Series, len(on))
	rightKeys := make([]Series, len(on))
	for i, name := range on {
		lk, err := t.Column(name)
		if err != nil {
			return nil, fmt.Errorf("join: left: %w", err)
		}
		rk, err := other.Column(name)
		if err != nil {
			return nil, fmt.Errorf("join: right: %w", err)
		}
		if err := checkKeyKinds(name, lk, rk); err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		leftKeys[i] = lk
		rightKeys[i] = rk
	}

	// Hash the right side: key fingerprint -> right row indices.
	index := make(map[string][]int, other.NumRows())
	for row := 0; row < other.NumRows(); row++ {
		if hasNullKey(rightKeys, row) {
			continue
		}
		key := keyFingerprint(rightKeys, row)
		index[key] = append(index[key], row)
	}

	// Probe with the left side. rightRow -1 marks a left-join miss.
	var leftRows, rightRows []int
	for row := 0; row < t.NumRows(); row++ {
		var matches []int
		if !hasNullKey(leftKeys, row) {
			matches = index[keyFingerprint(leftKeys, row)]
		}
		if len(matches) == 0 {
			if how == JoinLeft {
				leftRows = append(leftRows, row)
				rightRows = append(rightRows, -1)
			}
			continue
		}
		for _, rr := range matches {
			leftRows = append(leftRows, row)
			rightRows = append(rightRows, rr)
		}
	}

	onSet := make(map[string]bool, len(on))
	for _, name := range on {
		onSet[name] = true
	}

	cols := make([]Series, 0, t.NumColumns()+other.NumColumns()-len(on))
	for _, c := range t.cols {
		cols = append(cols, c.take(leftRows))
	}
	for _, c := range other.cols {
		if onSet[c.Name()] {
			continue
		}
		name := c.Name()
		if t.HasColumn(name) {
			name += "_right"
		}
		vals := make([]value.Value, len(rightRows))
		for i, rr := range rightRows {
			if rr < 0 {
				vals[i] = value.Null{}
			} else {
				vals[i] = c.Value(rr)
			}
		}
		cols = append(cols, Series{name: name, values: vals})
	}

	out, err := NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	return out, nil
}

// checkKeyKinds rejects joins whose key columns can never match by
// kind (e.g. Int keys against Str keys) rather than silently producing
// an empty result.
func checkKeyKinds(name string, left, right Series) error {
	lk, lok := left.Kind()
	rk, rok := right.Kind()
	if !lok || !rok {
		return &TypeMismatchError{
			Op:     "join",
			Left:   lk,
			Right:  rk,
			Detail: fmt.Sprintf("key column %q holds mixed kinds", name),
		}
	}
	if lk == value.KindNull || rk == value.KindNull {
		return nil
	}
	if _, ok := value.Unify(lk, rk); !ok {
		return &TypeMismatchError{
			Op:     "join",
			Left:   lk,
			Right:  rk,
			Detail: fmt.Sprintf("key column %q has incompatible kinds", name),
		}
	}
	return nil
}

func hasNullKey(keys []Series, row int) bool {
	for _, k := range keys {
		if value.IsNull(k.Value(row)) {
			return true
		}
	}
	return false
}
