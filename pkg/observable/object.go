package observable

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bindkit-dev/bindkit/pkg/value"
)

// Sentinel errors for property access. Callers match them with errors.Is;
// the returned errors wrap these with the object and property names.
var (
	ErrUnknownProperty = errors.New("observable: unknown property")
	ErrNotReadable     = errors.New("observable: property is not readable")
	ErrNotWritable     = errors.New("observable: property is not writable")
	ErrKindMismatch    = errors.New("observable: value kind does not match property")
	ErrDestroyed       = errors.New("observable: object is destroyed")
)

// Change describes one property mutation. It is delivered synchronously to
// subscribers whose predicate matches the property name.
type Change struct {
	Object   *Object
	Property string
	Value    value.Value
}

// property pairs a descriptor with its current value.
type property struct {
	desc    *Descriptor
	current value.Value
}

// Object is an observable entity: a fixed set of named, typed properties
// plus change subscriptions and destruction hooks. The property set is
// frozen at construction.
//
// Mutating an Object through Set synchronously notifies subscribers on the
// calling goroutine; notification handlers may themselves call Set (the
// delivery loop runs over a snapshot of the subscriber list). Objects are
// internally locked for subscriber and data bookkeeping, but serial
// delivery of notifications is the caller's responsibility.
type Object struct {
	name  string
	props map[string]*property

	subs   []*Subscription
	subsMu sync.Mutex

	hooks   []*Hook
	hooksMu sync.Mutex

	deciders   []*Decider
	decidersMu sync.Mutex

	// data holds opaque per-object attachments, keyed by caller-owned keys.
	data   map[any]any
	dataMu sync.RWMutex

	destroyed atomic.Bool
}

// New creates an object with the given property descriptors. Descriptor
// names must be unique; each property starts at its default value.
func New(name string, descs ...Descriptor) (*Object, error) {
	o := &Object{
		name:  name,
		props: make(map[string]*property, len(descs)),
	}
	for i := range descs {
		d := descs[i]
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := o.props[d.Name]; dup {
			return nil, fmt.Errorf("observable: duplicate property %q on %q", d.Name, name)
		}
		o.props[d.Name] = &property{desc: &d, current: d.initial()}
	}
	return o, nil
}

// MustNew is New for statically known descriptor sets; it panics on error.
func MustNew(name string, descs ...Descriptor) *Object {
	o, err := New(name, descs...)
	if err != nil {
		panic(err)
	}
	return o
}

// Name returns the object's identifier.
func (o *Object) Name() string { return o.name }

// Destroyed reports whether Destroy has run.
func (o *Object) Destroyed() bool { return o.destroyed.Load() }

// Descriptor returns the descriptor for a property.
// The returned pointer stays valid for the object's lifetime, so callers
// may cache it instead of resolving the name again.
func (o *Object) Descriptor(name string) (*Descriptor, error) {
	p, ok := o.props[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %q", ErrUnknownProperty, name, o.name)
	}
	return p.desc, nil
}

// Properties returns the descriptors of all properties, in no particular
// order.
func (o *Object) Properties() []*Descriptor {
	out := make([]*Descriptor, 0, len(o.props))
	for _, p := range o.props {
		out = append(out, p.desc)
	}
	return out
}

// Get reads the current value of a readable property.
func (o *Object) Get(name string) (value.Value, error) {
	if o.destroyed.Load() {
		return value.Nil, fmt.Errorf("%w: %q", ErrDestroyed, o.name)
	}
	p, ok := o.props[name]
	if !ok {
		return value.Nil, fmt.Errorf("%w: %q on %q", ErrUnknownProperty, name, o.name)
	}
	if !p.desc.Readable {
		return value.Nil, fmt.Errorf("%w: %q on %q", ErrNotReadable, name, o.name)
	}
	return p.current, nil
}

// Set writes a writable property and synchronously notifies matching
// subscribers. The value must carry the declared kind (integer values
// widen into float-declared properties); it is clamped and normalized by
// the descriptor before it is stored, so the stored value may differ from
// the one passed in.
func (o *Object) Set(name string, v value.Value) error {
	if o.destroyed.Load() {
		return fmt.Errorf("%w: %q", ErrDestroyed, o.name)
	}
	p, ok := o.props[name]
	if !ok {
		return fmt.Errorf("%w: %q on %q", ErrUnknownProperty, name, o.name)
	}
	if !p.desc.Writable {
		return fmt.Errorf("%w: %q on %q", ErrNotWritable, name, o.name)
	}

	if v.Kind() != p.desc.Kind {
		if p.desc.Kind == value.Float && v.Kind().IsInteger() {
			n, _ := v.Number()
			v = value.FloatVal(n)
		} else {
			return fmt.Errorf("%w: %s into %s property %q on %q",
				ErrKindMismatch, v.Kind(), p.desc.Kind, name, o.name)
		}
	}

	v = p.desc.coerce(v)
	p.current = v
	o.notify(Change{Object: o, Property: name, Value: v})
	return nil
}

// notify delivers a change to a snapshot of the subscriber list, so
// handlers can subscribe, unsubscribe, or write properties while the loop
// runs.
func (o *Object) notify(ch Change) {
	o.subsMu.Lock()
	subs := make([]*Subscription, len(o.subs))
	copy(subs, o.subs)
	o.subsMu.Unlock()

	for _, s := range subs {
		if s.cancelled.Load() {
			continue
		}
		if s.pred != nil && !s.pred(ch.Property) {
			continue
		}
		s.fn(ch)
	}
}

// SetData attaches an opaque value to the object under a caller-owned key.
// Attachments survive until overwritten, deleted, or the object is
// destroyed.
func (o *Object) SetData(key, v any) {
	o.dataMu.Lock()
	defer o.dataMu.Unlock()
	if o.data == nil {
		o.data = make(map[any]any)
	}
	o.data[key] = v
}

// Data returns the attachment stored under key, or nil.
func (o *Object) Data(key any) any {
	o.dataMu.RLock()
	defer o.dataMu.RUnlock()
	return o.data[key]
}

// DeleteData removes the attachment stored under key.
func (o *Object) DeleteData(key any) {
	o.dataMu.Lock()
	defer o.dataMu.Unlock()
	delete(o.data, key)
}

// Destroy runs the object's destruction hooks exactly once, in reverse
// registration order, then drops all subscriptions and attachments.
// Further Get/Set calls fail with ErrDestroyed. Calling Destroy again is
// a no-op.
func (o *Object) Destroy() {
	if o.destroyed.Swap(true) {
		return
	}

	o.hooksMu.Lock()
	hooks := o.hooks
	o.hooks = nil
	o.hooksMu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i].fire(o)
	}

	o.subsMu.Lock()
	o.subs = nil
	o.subsMu.Unlock()

	o.decidersMu.Lock()
	o.deciders = nil
	o.decidersMu.Unlock()

	o.dataMu.Lock()
	o.data = nil
	o.dataMu.Unlock()
}
