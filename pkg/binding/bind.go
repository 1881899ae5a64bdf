package binding

import (
	"log/slog"

	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/value"
)

// Option configures a binding before it goes live.
type Option func(*Binding)

// WithTransform sets the forward (source to target) transform. When
// omitted, the default kind-directed conversion applies.
func WithTransform(fn TransformFunc) Option {
	return func(b *Binding) {
		b.transformTo = fn
	}
}

// WithBackTransform sets the backward (target to source) transform, used
// only by bidirectional bindings.
func WithBackTransform(fn TransformFunc) Option {
	return func(b *Binding) {
		b.transformFrom = fn
	}
}

// WithTransformData attaches opaque user data for the transforms,
// retrievable via Binding.TransformData. destroy, when non-nil, runs
// exactly once at teardown.
func WithTransformData(data any, destroy func(any)) Option {
	return func(b *Binding) {
		b.transformData = data
		b.transformDataDestroy = destroy
	}
}

// WithConverter sets the conversion registry consulted by the default
// transforms. Defaults to value.Default().
func WithConverter(r *value.Registry) Option {
	return func(b *Binding) {
		b.conv = r
	}
}

// WithLogger sets the logger transform failures are reported to.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Binding) {
		b.logger = l
	}
}

// Bind creates a binding that keeps targetProp on target synchronized
// with sourceProp on source. With Bidirectional mode, writes to either
// property update the other; the internal guard stops the echo from
// bouncing back.
//
// Validation runs before anything is installed, in this order: the
// binding must not link a property to itself; sourceProp must exist and
// be readable (and writable under Bidirectional); targetProp must exist
// and be writable (and readable under Bidirectional). A failure returns
// a *ValidationError and no binding.
//
// The binding holds no ownership of either object. It is torn down by
// Release, or automatically when either object is destroyed.
func Bind(source *observable.Object, sourceProp string, target *observable.Object, targetProp string, mode Mode, opts ...Option) (*Binding, error) {
	if source.Destroyed() {
		return nil, &ValidationError{Object: source.Name(), Property: sourceProp, Err: observable.ErrDestroyed}
	}
	if target.Destroyed() {
		return nil, &ValidationError{Object: target.Name(), Property: targetProp, Err: observable.ErrDestroyed}
	}
	if source == target && sourceProp == targetProp {
		return nil, &ValidationError{
			Object:   source.Name(),
			Property: sourceProp,
			Err:      ErrSelfBinding,
		}
	}

	sourceDesc, err := source.Descriptor(sourceProp)
	if err != nil {
		return nil, &ValidationError{Object: source.Name(), Property: sourceProp, Err: err}
	}
	if !sourceDesc.Readable {
		return nil, &ValidationError{Object: source.Name(), Property: sourceProp, Err: observable.ErrNotReadable}
	}
	if mode == Bidirectional && !sourceDesc.Writable {
		return nil, &ValidationError{Object: source.Name(), Property: sourceProp, Err: observable.ErrNotWritable}
	}

	targetDesc, err := target.Descriptor(targetProp)
	if err != nil {
		return nil, &ValidationError{Object: target.Name(), Property: targetProp, Err: err}
	}
	if !targetDesc.Writable {
		return nil, &ValidationError{Object: target.Name(), Property: targetProp, Err: observable.ErrNotWritable}
	}
	if mode == Bidirectional && !targetDesc.Readable {
		return nil, &ValidationError{Object: target.Name(), Property: targetProp, Err: observable.ErrNotReadable}
	}

	b := &Binding{
		source:     source,
		target:     target,
		sourceProp: sourceProp,
		targetProp: targetProp,
		sourceDesc: sourceDesc,
		targetDesc: targetDesc,
		mode:       mode,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.conv == nil {
		b.conv = value.Default()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.transformTo == nil {
		b.transformTo = defaultTransform(b.conv, targetDesc.Kind)
	}
	if b.transformFrom == nil {
		b.transformFrom = defaultTransform(b.conv, sourceDesc.Kind)
	}

	b.forwardSub = source.SubscribeProperty(sourceProp, b.onSourceChanged)
	if mode == Bidirectional {
		b.backwardSub = target.SubscribeProperty(targetProp, b.onTargetChanged)
	}

	b.sourceHook = source.OnDestroy(b.unbind)
	b.targetHook = target.OnDestroy(b.unbind)

	attach(source, b)
	attach(target, b)

	recordBindingCreated()
	return b, nil
}

// defaultTransform converts a value toward the declared kind of the
// receiving property: verbatim copy for identical kinds, representation
// widening where the registry allows direct assignment, a registered
// conversion otherwise. With no path the transform fails and the update
// is dropped.
func defaultTransform(conv *value.Registry, to value.Kind) TransformFunc {
	return func(_ *Binding, v value.Value) (value.Value, error) {
		return conv.Convert(v, to)
	}
}
