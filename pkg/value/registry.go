package value

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ErrNoConversion is returned by Convert when no conversion path exists
// between the requested kinds.
var ErrNoConversion = errors.New("value: no conversion registered")

// ConvertFunc converts a value of one kind into another. It must not
// mutate shared state; a failed conversion returns an error and the
// returned Value is ignored.
type ConvertFunc func(v Value) (Value, error)

type convKey struct {
	from, to Kind
}

// Registry holds the conversion table used when a value of one kind must
// become another. Identity and numeric widening are built in; everything
// else must be registered explicitly.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	table map[convKey]ConvertFunc
}

// NewRegistry returns an empty registry: only identity and numeric
// widening apply until conversions are registered.
func NewRegistry() *Registry {
	return &Registry{table: make(map[convKey]ConvertFunc)}
}

// defaultRegistry backs the package-level helpers.
var defaultRegistry = NewRegistry()

// Default returns the shared process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register installs a conversion from one kind to another, replacing any
// previous entry for the pair.
func (r *Registry) Register(from, to Kind, fn ConvertFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[convKey{from, to}] = fn
}

// Assignable reports whether a value of kind from can be stored where kind
// to is declared without a registered conversion: either the kinds are
// identical, or to is a widening numeric representation of from.
func (r *Registry) Assignable(from, to Kind) bool {
	if from == to {
		return from.IsValid()
	}
	// Integer payloads widen into floats without a conversion entry.
	return to == Float && from.IsInteger()
}

// Convertible reports whether Convert can produce a value of kind to from
// a value of kind from, either by assignment or a registered conversion.
func (r *Registry) Convertible(from, to Kind) bool {
	if r.Assignable(from, to) {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.table[convKey{from, to}]
	return ok
}

// Convert produces a value of kind to from v. Identity copies verbatim,
// widening promotes integers to floats, and anything else consults the
// registered table. ErrNoConversion is returned when no path exists.
func (r *Registry) Convert(v Value, to Kind) (Value, error) {
	from := v.Kind()
	if from == to && from.IsValid() {
		return v, nil
	}
	if r.Assignable(from, to) {
		n, _ := v.Number()
		return FloatVal(n), nil
	}

	r.mu.RLock()
	fn, ok := r.table[convKey{from, to}]
	r.mu.RUnlock()
	if !ok {
		return Nil, fmt.Errorf("%w: %s to %s", ErrNoConversion, from, to)
	}

	out, err := fn(v)
	if err != nil {
		return Nil, err
	}
	if out.Kind() != to {
		return Nil, fmt.Errorf("value: conversion %s to %s produced %s", from, to, out.Kind())
	}
	return out, nil
}

// RegisterNumericConversions installs lossy number-to-number conversions
// (float truncates into integers, signs clamp at zero for uint).
func (r *Registry) RegisterNumericConversions() {
	r.Register(Float, Int, func(v Value) (Value, error) {
		f, _ := v.Float()
		return IntVal(int64(f)), nil
	})
	r.Register(Float, Uint, func(v Value) (Value, error) {
		f, _ := v.Float()
		if f < 0 {
			f = 0
		}
		return UintVal(uint64(f)), nil
	})
	r.Register(Int, Uint, func(v Value) (Value, error) {
		i, _ := v.Int()
		if i < 0 {
			i = 0
		}
		return UintVal(uint64(i)), nil
	})
	r.Register(Uint, Int, func(v Value) (Value, error) {
		u, _ := v.Uint()
		return IntVal(int64(u)), nil
	})
}

// RegisterStringConversions installs textual conversions between strings
// and the scalar kinds, strconv semantics in both directions.
func (r *Registry) RegisterStringConversions() {
	r.Register(Int, String, func(v Value) (Value, error) {
		i, _ := v.Int()
		return StringVal(strconv.FormatInt(i, 10)), nil
	})
	r.Register(Uint, String, func(v Value) (Value, error) {
		u, _ := v.Uint()
		return StringVal(strconv.FormatUint(u, 10)), nil
	})
	r.Register(Float, String, func(v Value) (Value, error) {
		f, _ := v.Float()
		return StringVal(strconv.FormatFloat(f, 'g', -1, 64)), nil
	})
	r.Register(Bool, String, func(v Value) (Value, error) {
		b, _ := v.Bool()
		return StringVal(strconv.FormatBool(b)), nil
	})
	r.Register(Duration, String, func(v Value) (Value, error) {
		d, _ := v.Dur()
		return StringVal(d.String()), nil
	})
	r.Register(String, Int, func(v Value) (Value, error) {
		s, _ := v.Str()
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Nil, err
		}
		return IntVal(i), nil
	})
	r.Register(String, Uint, func(v Value) (Value, error) {
		s, _ := v.Str()
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Nil, err
		}
		return UintVal(u), nil
	})
	r.Register(String, Float, func(v Value) (Value, error) {
		s, _ := v.Str()
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Nil, err
		}
		return FloatVal(f), nil
	})
	r.Register(String, Bool, func(v Value) (Value, error) {
		s, _ := v.Str()
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Nil, err
		}
		return BoolVal(b), nil
	})
	r.Register(String, Duration, func(v Value) (Value, error) {
		s, _ := v.Str()
		d, err := time.ParseDuration(s)
		if err != nil {
			return Nil, err
		}
		return DurationVal(d), nil
	})
}
