package observable

import (
	"sync/atomic"
)

// idCounter is the source of unique handles for subscriptions, hooks, and
// deciders. Monotonic, never reused.
var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// Subscription is the opaque handle returned by Subscribe. Cancelling it
// deterministically removes exactly the handler that created it.
type Subscription struct {
	id        uint64
	obj       *Object
	pred      func(prop string) bool
	fn        func(Change)
	cancelled atomic.Bool
}

// ID returns the unique identifier of this subscription.
func (s *Subscription) ID() uint64 { return s.id }

// Cancel removes the subscription. Safe to call more than once and safe
// to call from inside a notification handler.
func (s *Subscription) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	o := s.obj
	o.subsMu.Lock()
	defer o.subsMu.Unlock()
	for i, existing := range o.subs {
		if existing.id == s.id {
			o.subs[i] = o.subs[len(o.subs)-1]
			o.subs = o.subs[:len(o.subs)-1]
			return
		}
	}
}

// Subscribe registers fn for every change whose property name satisfies
// pred. A nil pred matches all properties. Delivery is synchronous on the
// goroutine performing the Set.
//
// Subscribing to a destroyed object returns an inert, already-cancelled
// handle.
func (o *Object) Subscribe(pred func(prop string) bool, fn func(Change)) *Subscription {
	s := &Subscription{
		id:   nextID(),
		obj:  o,
		pred: pred,
		fn:   fn,
	}
	if o.destroyed.Load() {
		s.cancelled.Store(true)
		return s
	}
	o.subsMu.Lock()
	o.subs = append(o.subs, s)
	o.subsMu.Unlock()
	return s
}

// SubscribeProperty registers fn for changes to one property.
func (o *Object) SubscribeProperty(name string, fn func(Change)) *Subscription {
	return o.Subscribe(func(prop string) bool { return prop == name }, fn)
}

// Hook is the opaque handle for a destruction hook: it fires at most
// once, synchronously, inside Destroy, unless cancelled first.
type Hook struct {
	id        uint64
	obj       *Object
	fn        func(*Object)
	cancelled atomic.Bool
	fired     atomic.Bool
}

// ID returns the unique identifier of this hook.
func (h *Hook) ID() uint64 { return h.id }

// fire runs the hook body once, unless it was cancelled.
func (h *Hook) fire(o *Object) {
	if h.cancelled.Load() {
		return
	}
	if h.fired.Swap(true) {
		return
	}
	h.fn(o)
}

// Cancel prevents the hook from firing. Cancelling an already-fired or
// already-cancelled hook is a no-op.
func (h *Hook) Cancel() {
	if h.cancelled.Swap(true) {
		return
	}
	o := h.obj
	o.hooksMu.Lock()
	defer o.hooksMu.Unlock()
	for i, existing := range o.hooks {
		if existing.id == h.id {
			o.hooks[i] = o.hooks[len(o.hooks)-1]
			o.hooks = o.hooks[:len(o.hooks)-1]
			return
		}
	}
}

// OnDestroy registers fn to run when the object is destroyed. If the
// object is already destroyed, fn runs immediately and the returned hook
// is already spent.
func (o *Object) OnDestroy(fn func(*Object)) *Hook {
	h := &Hook{
		id:  nextID(),
		obj: o,
		fn:  fn,
	}
	if o.destroyed.Load() {
		h.fire(o)
		return h
	}
	o.hooksMu.Lock()
	o.hooks = append(o.hooks, h)
	o.hooksMu.Unlock()
	return h
}
