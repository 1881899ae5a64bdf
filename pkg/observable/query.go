package observable

import (
	"sync/atomic"

	"github.com/bindkit-dev/bindkit/pkg/value"
)

// Decider is the opaque handle for a registered query decider: a direct
// call/return vote on whether an operation named by the query should be
// allowed. There is no state machine behind it; deciders are consulted in
// registration order and the first refusal wins.
type Decider struct {
	id        uint64
	obj       *Object
	fn        func(query string, detail value.Value) bool
	cancelled atomic.Bool
}

// ID returns the unique identifier of this decider.
func (d *Decider) ID() uint64 { return d.id }

// Cancel removes the decider. Safe to call more than once.
func (d *Decider) Cancel() {
	if d.cancelled.Swap(true) {
		return
	}
	o := d.obj
	o.decidersMu.Lock()
	defer o.decidersMu.Unlock()
	for i, existing := range o.deciders {
		if existing.id == d.id {
			o.deciders[i] = o.deciders[len(o.deciders)-1]
			o.deciders = o.deciders[:len(o.deciders)-1]
			return
		}
	}
}

// OnQuery registers a decider consulted by Ask.
func (o *Object) OnQuery(fn func(query string, detail value.Value) bool) *Decider {
	d := &Decider{
		id:  nextID(),
		obj: o,
		fn:  fn,
	}
	if o.destroyed.Load() {
		d.cancelled.Store(true)
		return d
	}
	o.decidersMu.Lock()
	o.deciders = append(o.deciders, d)
	o.decidersMu.Unlock()
	return d
}

// Ask consults the registered deciders and returns false as soon as one
// refuses. With no deciders registered the answer is true.
func (o *Object) Ask(query string, detail value.Value) bool {
	o.decidersMu.Lock()
	deciders := make([]*Decider, len(o.deciders))
	copy(deciders, o.deciders)
	o.decidersMu.Unlock()

	for _, d := range deciders {
		if d.cancelled.Load() {
			continue
		}
		if !d.fn(query, detail) {
			return false
		}
	}
	return true
}
