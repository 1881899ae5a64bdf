// Package binding keeps a property on one observable object synchronized
// with a property on another, optionally in both directions, with
// pluggable value transformation and automatic severance when either
// endpoint is destroyed.
//
// A binding never owns its endpoints: it holds plain back-references that
// are nulled exactly once when the endpoint dies, and each endpoint
// carries a non-owning membership list of the bindings touching it, used
// only for teardown. Propagation and teardown run synchronously on
// whichever goroutine drives the endpoint's notifications; the package
// assumes serial delivery and performs no locking of its own around the
// propagation path.
package binding

import (
	"log/slog"

	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/value"
)

// Mode selects which directions a binding propagates in.
type Mode int

const (
	// Unidirectional propagates source changes to the target only.
	Unidirectional Mode = iota
	// Bidirectional additionally propagates target changes back to the
	// source.
	Bidirectional
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	if m == Bidirectional {
		return "bidirectional"
	}
	return "unidirectional"
}

// TransformFunc converts a value read from one endpoint into a value for
// the other. Returning an error drops the update without writing; the
// binding remains usable. Transforms must not write to either endpoint.
type TransformFunc func(b *Binding, v value.Value) (value.Value, error)

// Binding is the managed link between sourceProperty on source and
// targetProperty on target. Create one with Bind; dispose of it with
// Release or by destroying either endpoint.
type Binding struct {
	// source and target are non-owning; each becomes nil exactly once,
	// when that endpoint is destroyed. Once either is nil the binding is
	// severed for good.
	source *observable.Object
	target *observable.Object

	sourceProp string
	targetProp string

	// Descriptors are resolved once, at construction, and never again.
	sourceDesc *observable.Descriptor
	targetDesc *observable.Descriptor

	mode Mode

	transformTo   TransformFunc
	transformFrom TransformFunc

	// transformData is opaque user data carried for the life of the
	// binding; its destructor runs exactly once, at teardown.
	transformData        any
	transformDataDestroy func(any)

	conv   *value.Registry
	logger *slog.Logger

	// guard is the cooperative reentrancy marker: true only while a
	// propagation write is in flight. It is a plain bool on purpose —
	// notification delivery is serial by precondition, and the flag must
	// be visible to the re-entered handler on the same goroutine.
	guard bool

	forwardSub  *observable.Subscription
	backwardSub *observable.Subscription
	sourceHook  *observable.Hook
	targetHook  *observable.Hook

	released bool
}

// Source returns the source object, or nil once severed.
func (b *Binding) Source() *observable.Object { return b.source }

// Target returns the target object, or nil once severed.
func (b *Binding) Target() *observable.Object { return b.target }

// SourceProperty returns the bound property name on the source.
func (b *Binding) SourceProperty() string { return b.sourceProp }

// TargetProperty returns the bound property name on the target.
func (b *Binding) TargetProperty() string { return b.targetProp }

// Mode returns the direction mode the binding was created with.
func (b *Binding) Mode() Mode { return b.mode }

// TransformData returns the opaque user data attached with
// WithTransformData, for use inside custom transforms.
func (b *Binding) TransformData() any { return b.transformData }

// Severed reports whether the binding can no longer propagate: either
// endpoint died or the binding was released.
func (b *Binding) Severed() bool {
	return b.released || b.source == nil || b.target == nil
}

// Release severs the binding without touching either endpoint's state.
// It is idempotent: the first call runs the single cleanup, later calls
// do nothing.
func (b *Binding) Release() {
	b.finalize()
}

// unbind is the destruction hook body: dead is the endpoint being
// destroyed. The dead side is nulled; the surviving side is fully
// detached (handler unsubscribed, membership removed, hook cancelled so
// it cannot fire for a binding already torn down), then the binding
// finalizes.
func (b *Binding) unbind(dead *observable.Object) {
	if b.source == dead {
		b.source = nil
	} else if b.source != nil {
		b.forwardSub.Cancel()
		b.sourceHook.Cancel()
		detach(b.source, b)
		b.source = nil
	}

	if b.target == dead {
		b.target = nil
	} else if b.target != nil {
		if b.backwardSub != nil {
			b.backwardSub.Cancel()
		}
		b.targetHook.Cancel()
		detach(b.target, b)
		b.target = nil
	}

	b.finalize()
}

// finalize runs the binding's one-time cleanup: the transform-data
// destructor, then disconnection of whatever subscriptions, hooks, and
// memberships are still live. Every step tolerates endpoints that are
// already nil or already detached, so finalize is safe to reach from
// Release, from unbind, or from both.
func (b *Binding) finalize() {
	if b.released {
		return
	}
	b.released = true

	if destroy := b.transformDataDestroy; destroy != nil {
		b.transformDataDestroy = nil
		data := b.transformData
		b.transformData = nil
		destroy(data)
	}

	if b.source != nil {
		b.forwardSub.Cancel()
		b.sourceHook.Cancel()
		detach(b.source, b)
		b.source = nil
	}

	if b.target != nil {
		if b.backwardSub != nil {
			b.backwardSub.Cancel()
		}
		b.targetHook.Cancel()
		detach(b.target, b)
		b.target = nil
	}

	recordBindingReleased()
}

// registryKey keys the per-object binding membership list in the
// object's attachment storage.
type registryKey struct{}

// attach adds b to obj's membership list.
func attach(obj *observable.Object, b *Binding) {
	list, _ := obj.Data(registryKey{}).([]*Binding)
	obj.SetData(registryKey{}, append(list, b))
}

// detach removes b from obj's membership list.
func detach(obj *observable.Object, b *Binding) {
	list, _ := obj.Data(registryKey{}).([]*Binding)
	for i, existing := range list {
		if existing == b {
			list[i] = list[len(list)-1]
			obj.SetData(registryKey{}, list[:len(list)-1])
			return
		}
	}
}

// Of returns the active bindings attached to obj, in no particular
// order. The returned slice is a copy.
func Of(obj *observable.Object) []*Binding {
	list, _ := obj.Data(registryKey{}).([]*Binding)
	out := make([]*Binding, len(list))
	copy(out, list)
	return out
}
