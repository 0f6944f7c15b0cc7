package value

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface representing a single table cell.
// Only Null, Int, Float, Str, and Bool implement this.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a missing value.
// Using an explicit type ensures all Values satisfy the sealed interface.
type Null struct{}

func (Null) value() {}

// Int represents an integer cell. Always int64.
type Int int64

func (Int) value() {}

// Float represents a floating-point cell. Always float64.
type Float float64

func (Float) value() {}

// Str represents a string cell.
type Str string

func (Str) value() {}

// Bool represents a boolean cell.
type Bool bool

func (Bool) value() {}

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
)

// String returns the dtype name used in schemas and rendered output.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a dtype name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "null":
		return KindNull, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "str":
		return KindStr, nil
	case "bool":
		return KindBool, nil
	default:
		return KindNull, fmt.Errorf("unknown kind %q", s)
	}
}

// KindOf returns the Kind of a Value.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Null:
		return KindNull
	case Int:
		return KindInt
	case Float:
		return KindFloat
	case Str:
		return KindStr
	case Bool:
		return KindBool
	default:
		panic(fmt.Sprintf("unknown Value type: %T", v))
	}
}

// IsNull reports whether v is the missing marker.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// Unify returns the common Kind for two non-null kinds, promoting
// Int to Float when the two are mixed numerics. Returns false when
// the kinds cannot be combined.
func Unify(a, b Kind) (Kind, bool) {
	if a == b {
		return a, true
	}
	if (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt) {
		return KindFloat, true
	}
	return KindNull, false
}

// AsFloat converts a numeric Value to float64.
// Returns false for non-numeric values.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	default:
		return 0, false
	}
}

// Compare orders two values of a unified kind.
// Null sorts before every non-null value; two Nulls are equal.
// Mixed Int/Float pairs compare numerically. Returns false when the
// values are not comparable (e.g. Str vs Int).
func Compare(a, b Value) (int, bool) {
	if IsNull(a) || IsNull(b) {
		switch {
		case IsNull(a) && IsNull(b):
			return 0, true
		case IsNull(a):
			return -1, true
		default:
			return 1, true
		}
	}

	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		// Only numeric kinds mix.
		fa, aok := AsFloat(a)
		fb, bok := AsFloat(b)
		if !aok || !bok {
			return 0, false
		}
		return compareFloat(fa, fb), true
	}

	switch va := a.(type) {
	case Int:
		vb := b.(Int)
		switch {
		case va < vb:
			return -1, true
		case va > vb:
			return 1, true
		default:
			return 0, true
		}
	case Float:
		return compareFloat(float64(va), float64(b.(Float))), true
	case Str:
		vb := b.(Str)
		switch {
		case va < vb:
			return -1, true
		case va > vb:
			return 1, true
		default:
			return 0, true
		}
	case Bool:
		vb := b.(Bool)
		switch {
		case !bool(va) && bool(vb):
			return -1, true
		case bool(va) && !bool(vb):
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports exact-equality between two values under numeric
// unification. Null never equals anything, including Null - callers
// that need Null-aware identity (group keys) use Identical.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return false
	}
	c, ok := Compare(a, b)
	return ok && c == 0
}

// Identical reports whether two values are the same for grouping and
// join purposes: like Equal, but Null is identical to Null.
func Identical(a, b Value) bool {
	if IsNull(a) && IsNull(b) {
		return true
	}
	return Equal(a, b)
}

// String renders a value the way it appears in table output.
// Null renders as empty.
func String(v Value) string {
	switch val := v.(type) {
	case Null:
		return ""
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Str:
		return string(val)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToGo converts a Value to its native Go representation.
// Null becomes nil.
func ToGo(v Value) any {
	switch val := v.(type) {
	case Null:
		return nil
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Str:
		return string(val)
	case Bool:
		return bool(val)
	default:
		return nil
	}
}

// FromGo converts a native Go value to a Value.
// nil becomes Null. Integer widths normalize to Int, float32/64 to Float.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case int:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case string:
		return Str(val), nil
	case []byte:
		return Str(val), nil
	case bool:
		return Bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}
