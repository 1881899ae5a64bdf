package value

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Value is a tagged container for a property value. The kind is fixed at
// construction; accessors for a different kind return the zero value of
// that type along with ok=false.
//
// The zero Value has kind Invalid and is what severed or failed reads
// produce. Values are immutable; copying one is cheap.
type Value struct {
	kind Kind

	// Exactly one of these carries the payload, selected by kind.
	// time.Time and any get their own slots to avoid boxing numbers.
	num float64
	i   int64
	u   uint64
	str string
	b   bool
	t   time.Time
	any any
}

// Nil is the invalid zero Value.
var Nil Value

// Of builds a Value from a Go value, mapping native types onto kinds.
// Unrecognized types are carried as Any.
func Of(v any) Value {
	switch x := v.(type) {
	case bool:
		return BoolVal(x)
	case int:
		return IntVal(int64(x))
	case int8:
		return IntVal(int64(x))
	case int16:
		return IntVal(int64(x))
	case int32:
		return IntVal(int64(x))
	case int64:
		return IntVal(x)
	case uint:
		return UintVal(uint64(x))
	case uint8:
		return UintVal(uint64(x))
	case uint16:
		return UintVal(uint64(x))
	case uint32:
		return UintVal(uint64(x))
	case uint64:
		return UintVal(x)
	case float32:
		return FloatVal(float64(x))
	case float64:
		return FloatVal(x)
	case string:
		return StringVal(x)
	case time.Duration:
		return DurationVal(x)
	case time.Time:
		return TimeVal(x)
	case Value:
		return x
	case nil:
		return Nil
	default:
		return AnyVal(x)
	}
}

// BoolVal returns a Bool-kinded value.
func BoolVal(b bool) Value { return Value{kind: Bool, b: b} }

// IntVal returns an Int-kinded value.
func IntVal(i int64) Value { return Value{kind: Int, i: i} }

// UintVal returns a Uint-kinded value.
func UintVal(u uint64) Value { return Value{kind: Uint, u: u} }

// FloatVal returns a Float-kinded value.
func FloatVal(f float64) Value { return Value{kind: Float, num: f} }

// StringVal returns a String-kinded value.
func StringVal(s string) Value { return Value{kind: String, str: s} }

// DurationVal returns a Duration-kinded value.
func DurationVal(d time.Duration) Value { return Value{kind: Duration, i: int64(d)} }

// TimeVal returns a Time-kinded value.
func TimeVal(t time.Time) Value { return Value{kind: Time, t: t} }

// AnyVal returns an Any-kinded value wrapping an opaque payload.
func AnyVal(v any) Value { return Value{kind: Any, any: v} }

// Kind returns the kind tag.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value carries a payload.
func (v Value) IsValid() bool { return v.kind.IsValid() }

// Bool returns the payload when the kind is Bool.
func (v Value) Bool() (bool, bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.b, true
}

// Int returns the payload when the kind is Int.
func (v Value) Int() (int64, bool) {
	if v.kind != Int {
		return 0, false
	}
	return v.i, true
}

// Uint returns the payload when the kind is Uint.
func (v Value) Uint() (uint64, bool) {
	if v.kind != Uint {
		return 0, false
	}
	return v.u, true
}

// Float returns the payload when the kind is Float.
func (v Value) Float() (float64, bool) {
	if v.kind != Float {
		return 0, false
	}
	return v.num, true
}

// Str returns the payload when the kind is String.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.str, true
}

// Dur returns the payload when the kind is Duration.
func (v Value) Dur() (time.Duration, bool) {
	if v.kind != Duration {
		return 0, false
	}
	return time.Duration(v.i), true
}

// TimeValue returns the payload when the kind is Time.
func (v Value) TimeValue() (time.Time, bool) {
	if v.kind != Time {
		return time.Time{}, false
	}
	return v.t, true
}

// AnyValue returns the payload when the kind is Any.
func (v Value) AnyValue() (any, bool) {
	if v.kind != Any {
		return nil, false
	}
	return v.any, true
}

// Interface returns the payload as a plain Go value regardless of kind.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i
	case Uint:
		return v.u
	case Float:
		return v.num
	case String:
		return v.str
	case Duration:
		return time.Duration(v.i)
	case Time:
		return v.t
	case Any:
		return v.any
	default:
		return nil
	}
}

// Number returns the payload widened to float64 for any numeric kind.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case Int:
		return float64(v.i), true
	case Uint:
		return float64(v.u), true
	case Float:
		return v.num, true
	default:
		return 0, false
	}
}

// Equal reports whether two values have the same kind and payload.
// Any payloads are compared with reflect.DeepEqual.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Bool:
		return v.b == o.b
	case Int, Duration:
		return v.i == o.i
	case Uint:
		return v.u == o.u
	case Float:
		return v.num == o.num
	case String:
		return v.str == o.str
	case Time:
		return v.t.Equal(o.t)
	case Any:
		return reflect.DeepEqual(v.any, o.any)
	default:
		return true // two invalid values
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Uint:
		return strconv.FormatUint(v.u, 10)
	case Float:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case String:
		return v.str
	case Duration:
		return time.Duration(v.i).String()
	case Time:
		return v.t.Format(time.RFC3339Nano)
	case Any:
		return fmt.Sprintf("%v", v.any)
	default:
		return "<invalid>"
	}
}
