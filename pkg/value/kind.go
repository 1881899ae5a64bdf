package value

// Kind identifies the representation carried by a Value.
type Kind int

const (
	// Invalid is the zero Kind; it is carried by the zero Value and by
	// values produced from failed conversions.
	Invalid Kind = iota

	Bool
	Int
	Uint
	Float
	String
	Duration
	Time

	// Any carries an opaque payload. Two Any values are only assignable
	// verbatim; no conversions apply.
	Any
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case String:
		return "string"
	case Duration:
		return "duration"
	case Time:
		return "time"
	case Any:
		return "any"
	default:
		return "invalid"
	}
}

// IsNumeric reports whether the kind is an integer or floating-point number.
func (k Kind) IsNumeric() bool {
	switch k {
	case Int, Uint, Float:
		return true
	default:
		return false
	}
}

// IsInteger reports whether the kind is a signed or unsigned integer.
func (k Kind) IsInteger() bool {
	return k == Int || k == Uint
}

// IsValid reports whether the kind names a real representation.
func (k Kind) IsValid() bool {
	return k > Invalid && k <= Any
}
