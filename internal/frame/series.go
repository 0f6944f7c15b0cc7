package frame

import (
	"github.com/tabula-data/tabula/internal/value"
)

// Series is an immutable named column: an ordered sequence of typed
// values. Constructors copy their input, and no method mutates the
// receiver, so Series values can be shared between tables freely.
type Series struct {
	name   string
	values []value.Value
}

// NewSeries creates a Series from a slice of values. The slice is
// copied; nil elements become the missing marker.
func NewSeries(name string, values []value.Value) Series {
	vals := make([]value.Value, len(values))
	for i, v := range values {
		if v == nil {
			vals[i] = value.Null{}
		} else {
			vals[i] = v
		}
	}
	return Series{name: name, values: vals}
}

// Ints creates an integer Series.
func Ints(name string, values ...int64) Series {
	vals := make([]value.Value, len(values))
	for i, v := range values {
		vals[i] = value.Int(v)
	}
	return Series{name: name, values: vals}
}

// Floats creates a float Series.
func Floats(name string, values ...float64) Series {
	vals := make([]value.Value, len(values))
	for i, v := range values {
		vals[i] = value.Float(v)
	}
	return Series{name: name, values: vals}
}

// Strs creates a string Series.
func Strs(name string, values ...string) Series {
	vals := make([]value.Value, len(values))
	for i, v := range values {
		vals[i] = value.Str(v)
	}
	return Series{name: name, values: vals}
}

// Bools creates a boolean Series.
func Bools(name string, values ...bool) Series {
	vals := make([]value.Value, len(values))
	for i, v := range values {
		vals[i] = value.Bool(v)
	}
	return Series{name: name, values: vals}
}

// Name returns the column name.
func (s Series) Name() string {
	return s.name
}

// Len returns the number of values.
func (s Series) Len() int {
	return len(s.values)
}

// Value returns the value at row i.
func (s Series) Value(i int) value.Value {
	return s.values[i]
}

// Values returns a copy of the underlying values.
func (s Series) Values() []value.Value {
	out := make([]value.Value, len(s.values))
	copy(out, s.values)
	return out
}

// Rename returns a copy of the series under a new name.
// The value storage is shared - values are never mutated.
func (s Series) Rename(name string) Series {
	return Series{name: name, values: s.values}
}

// Kind returns the series' unified non-null kind: the kind shared by
// all non-null values, with mixed Int/Float unifying to Float. Returns
// KindNull for an empty or all-null series, and false when non-null
// values have irreconcilable kinds.
func (s Series) Kind() (value.Kind, bool) {
	kind := value.KindNull
	for _, v := range s.values {
		if value.IsNull(v) {
			continue
		}
		k := value.KindOf(v)
		if kind == value.KindNull {
			kind = k
			continue
		}
		unified, ok := value.Unify(kind, k)
		if !ok {
			return value.KindNull, false
		}
		kind = unified
	}
	return kind, true
}

// Equal reports whether two series have the same name and identical
// values (Null matching Null).
func (s Series) Equal(other Series) bool {
	if s.name != other.name || len(s.values) != len(other.values) {
		return false
	}
	for i, v := range s.values {
		if !value.Identical(v, other.values[i]) {
			return false
		}
	}
	return true
}

// take returns a new series holding the values at the given row
// indices, in order.
func (s Series) take(indices []int) Series {
	vals := make([]value.Value, len(indices))
	for i, idx := range indices {
		vals[i] = s.values[idx]
	}
	return Series{name: s.name, values: vals}
}

// window returns the series restricted to rows [start, end).
// Bounds must already be clamped by the caller.
func (s Series) window(start, end int) Series {
	vals := make([]value.Value, end-start)
	copy(vals, s.values[start:end])
	return Series{name: s.name, values: vals}
}
