package value

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireValue is the JSON shape used by the bridge protocol: an explicit
// kind tag plus a kind-appropriate payload.
type wireValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the value as {"kind": ..., "value": ...}.
// Durations and times are encoded as strings so they survive a round trip
// without float precision loss.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case Duration:
		payload = time.Duration(v.i).String()
	case Time:
		payload = v.t.Format(time.RFC3339Nano)
	default:
		payload = v.Interface()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Kind: v.kind.String(), Value: raw})
}

// UnmarshalJSON decodes the wire shape produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	kind, ok := kindFromName(w.Kind)
	if !ok {
		return fmt.Errorf("value: unknown kind %q", w.Kind)
	}

	switch kind {
	case Bool:
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return err
		}
		*v = BoolVal(b)
	case Int:
		var i int64
		if err := json.Unmarshal(w.Value, &i); err != nil {
			return err
		}
		*v = IntVal(i)
	case Uint:
		var u uint64
		if err := json.Unmarshal(w.Value, &u); err != nil {
			return err
		}
		*v = UintVal(u)
	case Float:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return err
		}
		*v = FloatVal(f)
	case String:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		*v = StringVal(s)
	case Duration:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*v = DurationVal(d)
	case Time:
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		*v = TimeVal(t)
	case Any:
		var a any
		if err := json.Unmarshal(w.Value, &a); err != nil {
			return err
		}
		*v = AnyVal(a)
	default:
		*v = Nil
	}
	return nil
}

// kindFromName is the inverse of Kind.String.
func kindFromName(name string) (Kind, bool) {
	switch name {
	case "bool":
		return Bool, true
	case "int":
		return Int, true
	case "uint":
		return Uint, true
	case "float":
		return Float, true
	case "string":
		return String, true
	case "duration":
		return Duration, true
	case "time":
		return Time, true
	case "any":
		return Any, true
	case "invalid":
		return Invalid, true
	default:
		return Invalid, false
	}
}
