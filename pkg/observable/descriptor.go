package observable

import (
	"fmt"
	"time"

	"github.com/bindkit-dev/bindkit/pkg/value"
)

// Descriptor declares a named, typed property on an Object. Descriptors
// are resolved once at object construction and handed out by reference;
// callers that need repeated access (such as bindings) cache them instead
// of re-resolving by name.
type Descriptor struct {
	// Name is the property identifier, unique within an object.
	Name string

	// Kind is the declared value representation.
	Kind value.Kind

	// Readable and Writable gate Get and Set respectively.
	Readable bool
	Writable bool

	// Default is the initial value. The zero Value means "zero of Kind".
	Default value.Value

	// Min and Max clamp numeric writes when set. Ignored for
	// non-numeric kinds.
	Min *float64
	Max *float64

	// Normalize, when non-nil, rewrites a value on every write after
	// clamping. It must be infallible; it is the descriptor's own
	// constraint system, not a validation gate.
	Normalize func(value.Value) value.Value
}

// validate checks that the descriptor is usable at construction time.
func (d *Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("observable: property with empty name")
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("observable: property %q has invalid kind", d.Name)
	}
	if !d.Readable && !d.Writable {
		return fmt.Errorf("observable: property %q is neither readable nor writable", d.Name)
	}
	return nil
}

// coerce applies the descriptor's constraints to an incoming write:
// numeric clamping to [Min, Max] followed by the Normalize hook.
// The value is assumed to already carry the declared kind.
func (d *Descriptor) coerce(v value.Value) value.Value {
	if d.Kind.IsNumeric() && (d.Min != nil || d.Max != nil) {
		if n, ok := v.Number(); ok {
			clamped := n
			if d.Min != nil && clamped < *d.Min {
				clamped = *d.Min
			}
			if d.Max != nil && clamped > *d.Max {
				clamped = *d.Max
			}
			if clamped != n {
				switch d.Kind {
				case value.Int:
					v = value.IntVal(int64(clamped))
				case value.Uint:
					v = value.UintVal(uint64(clamped))
				case value.Float:
					v = value.FloatVal(clamped)
				}
			}
		}
	}
	if d.Normalize != nil {
		v = d.Normalize(v)
	}
	return v
}

// initial returns the value a fresh property starts with.
func (d *Descriptor) initial() value.Value {
	if d.Default.IsValid() {
		return d.coerce(d.Default)
	}
	return zeroOf(d.Kind)
}

// zeroOf returns the zero value for a kind.
func zeroOf(k value.Kind) value.Value {
	switch k {
	case value.Bool:
		return value.BoolVal(false)
	case value.Int:
		return value.IntVal(0)
	case value.Uint:
		return value.UintVal(0)
	case value.Float:
		return value.FloatVal(0)
	case value.String:
		return value.StringVal("")
	case value.Duration:
		return value.DurationVal(0)
	case value.Time:
		return value.TimeVal(time.Time{})
	case value.Any:
		return value.AnyVal(nil)
	default:
		return value.Nil
	}
}
