package binding

import (
	"github.com/bindkit-dev/bindkit/pkg/observable"
)

// onSourceChanged handles a change event for sourceProp on source and
// propagates it forward into the target.
func (b *Binding) onSourceChanged(observable.Change) {
	b.propagate(Forward)
}

// onTargetChanged is the mirror image: it handles a change event for
// targetProp on target and propagates it backward into the source. It is
// only ever subscribed for bidirectional bindings.
func (b *Binding) onTargetChanged(observable.Change) {
	b.propagate(Backward)
}

// propagate runs one synchronization step: read the changed property,
// transform the value, then write it to the paired property with the
// guard raised so the resulting change event on the peer (under
// Bidirectional mode) is recognized as our own echo and dropped.
//
// Exactly one external write happens per received event. A failed
// transform performs no write and leaves the guard untouched; the event
// is dropped and the binding keeps working.
func (b *Binding) propagate(dir Direction) {
	if b.guard {
		// Echo of a write we just performed on the peer.
		return
	}

	var (
		from, to         *observable.Object
		fromProp, toProp string
		transform        TransformFunc
	)
	if dir == Forward {
		from, to = b.source, b.target
		fromProp, toProp = b.sourceProp, b.targetProp
		transform = b.transformTo
	} else {
		from, to = b.target, b.source
		fromProp, toProp = b.targetProp, b.sourceProp
		transform = b.transformFrom
	}
	if from == nil || to == nil {
		return
	}

	v, err := from.Get(fromProp)
	if err != nil {
		// Endpoint died between event delivery and the read.
		return
	}

	out, err := transform(b, v)
	if err != nil {
		b.reportTransformFailure(dir, toProp, err)
		return
	}

	b.guard = true
	defer func() { b.guard = false }()

	// Clamping and normalization against the receiving descriptor happen
	// inside Set: validate-then-set, the clamped value is what is stored.
	if err := to.Set(toProp, out); err != nil {
		b.reportTransformFailure(dir, toProp, err)
		return
	}

	recordPropagation(dir)
}

// reportTransformFailure logs a dropped update and counts it. Transform
// failures are diagnostics, never fatal: the caller that triggered the
// underlying property write is not interrupted.
func (b *Binding) reportTransformFailure(dir Direction, prop string, err error) {
	terr := &TransformError{Direction: dir, Property: prop, Err: err}
	b.logger.Warn("binding update dropped",
		"direction", dir.String(),
		"property", prop,
		"error", terr,
	)
	recordTransformError(dir)
}
