package observable

import (
	"errors"
	"testing"

	"github.com/bindkit-dev/bindkit/pkg/value"
)

func intProp(name string) Descriptor {
	return Descriptor{Name: name, Kind: value.Int, Readable: true, Writable: true}
}

func TestObjectGetSet(t *testing.T) {
	obj := MustNew("sensor", intProp("value"))

	v, err := obj.Get("value")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if i, _ := v.Int(); i != 0 {
		t.Errorf("expected zero default, got %d", i)
	}

	if err := obj.Set("value", value.IntVal(10)); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ = obj.Get("value")
	if i, _ := v.Int(); i != 10 {
		t.Errorf("expected 10, got %d", i)
	}
}

func TestObjectAccessErrors(t *testing.T) {
	obj := MustNew("sensor",
		intProp("value"),
		Descriptor{Name: "serial", Kind: value.String, Readable: true},
		Descriptor{Name: "command", Kind: value.String, Writable: true},
	)

	if _, err := obj.Get("missing"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("expected ErrUnknownProperty, got %v", err)
	}
	if _, err := obj.Get("command"); !errors.Is(err, ErrNotReadable) {
		t.Errorf("expected ErrNotReadable, got %v", err)
	}
	if err := obj.Set("serial", value.StringVal("x")); !errors.Is(err, ErrNotWritable) {
		t.Errorf("expected ErrNotWritable, got %v", err)
	}
	if err := obj.Set("value", value.StringVal("ten")); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}

func TestObjectDefaultsAndClamp(t *testing.T) {
	min, max := 0.0, 100.0
	obj := MustNew("gauge", Descriptor{
		Name:     "level",
		Kind:     value.Int,
		Readable: true,
		Writable: true,
		Default:  value.IntVal(50),
		Min:      &min,
		Max:      &max,
	})

	v, _ := obj.Get("level")
	if i, _ := v.Int(); i != 50 {
		t.Errorf("expected default 50, got %d", i)
	}

	if err := obj.Set("level", value.IntVal(150)); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ = obj.Get("level")
	if i, _ := v.Int(); i != 100 {
		t.Errorf("expected clamp to 100, got %d", i)
	}

	if err := obj.Set("level", value.IntVal(-5)); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ = obj.Get("level")
	if i, _ := v.Int(); i != 0 {
		t.Errorf("expected clamp to 0, got %d", i)
	}
}

func TestObjectIntWidensIntoFloatProperty(t *testing.T) {
	obj := MustNew("gauge", Descriptor{Name: "ratio", Kind: value.Float, Readable: true, Writable: true})

	if err := obj.Set("ratio", value.IntVal(2)); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ := obj.Get("ratio")
	if f, _ := v.Float(); f != 2.0 {
		t.Errorf("expected 2.0, got %g", f)
	}
}

func TestObjectRejectsBadDescriptors(t *testing.T) {
	if _, err := New("x", Descriptor{Name: "", Kind: value.Int, Readable: true}); err == nil {
		t.Error("expected error for empty property name")
	}
	if _, err := New("x", intProp("a"), intProp("a")); err == nil {
		t.Error("expected error for duplicate property")
	}
	if _, err := New("x", Descriptor{Name: "a", Kind: value.Int}); err == nil {
		t.Error("expected error for property with no access")
	}
}

func TestSubscribeFiltersByProperty(t *testing.T) {
	obj := MustNew("sensor", intProp("a"), intProp("b"))

	var aCount, allCount int
	obj.SubscribeProperty("a", func(Change) { aCount++ })
	obj.Subscribe(nil, func(Change) { allCount++ })

	obj.Set("a", value.IntVal(1))
	obj.Set("b", value.IntVal(2))

	if aCount != 1 {
		t.Errorf("property subscription: expected 1 event, got %d", aCount)
	}
	if allCount != 2 {
		t.Errorf("unfiltered subscription: expected 2 events, got %d", allCount)
	}
}

func TestSubscriptionCancel(t *testing.T) {
	obj := MustNew("sensor", intProp("a"))

	count := 0
	sub := obj.SubscribeProperty("a", func(Change) { count++ })

	obj.Set("a", value.IntVal(1))
	sub.Cancel()
	sub.Cancel() // second cancel is a no-op
	obj.Set("a", value.IntVal(2))

	if count != 1 {
		t.Errorf("expected 1 event after cancel, got %d", count)
	}
}

func TestNotifyHandlerMayWriteProperties(t *testing.T) {
	obj := MustNew("sensor", intProp("a"), intProp("b"))

	obj.SubscribeProperty("a", func(ch Change) {
		i, _ := ch.Value.Int()
		obj.Set("b", value.IntVal(i*2))
	})

	if err := obj.Set("a", value.IntVal(21)); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, _ := obj.Get("b")
	if i, _ := v.Int(); i != 42 {
		t.Errorf("expected reentrant write to land, got %d", i)
	}
}

func TestDestroyFiresHooksOnce(t *testing.T) {
	obj := MustNew("sensor", intProp("a"))

	fired := 0
	obj.OnDestroy(func(*Object) { fired++ })

	obj.Destroy()
	obj.Destroy()

	if fired != 1 {
		t.Errorf("hook should fire exactly once, fired %d times", fired)
	}
	if !obj.Destroyed() {
		t.Error("object should report destroyed")
	}
	if _, err := obj.Get("a"); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
	if err := obj.Set("a", value.IntVal(1)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
}

func TestCancelledHookDoesNotFire(t *testing.T) {
	obj := MustNew("sensor", intProp("a"))

	fired := false
	h := obj.OnDestroy(func(*Object) { fired = true })
	h.Cancel()
	obj.Destroy()

	if fired {
		t.Error("cancelled hook must not fire")
	}
}

func TestOnDestroyAfterDestroyRunsImmediately(t *testing.T) {
	obj := MustNew("sensor", intProp("a"))
	obj.Destroy()

	fired := false
	obj.OnDestroy(func(*Object) { fired = true })
	if !fired {
		t.Error("hook registered after destruction should run immediately")
	}
}

func TestDataAttachments(t *testing.T) {
	obj := MustNew("sensor", intProp("a"))

	type key struct{}
	obj.SetData(key{}, "payload")
	if got := obj.Data(key{}); got != "payload" {
		t.Errorf("expected attachment, got %v", got)
	}
	obj.DeleteData(key{})
	if got := obj.Data(key{}); got != nil {
		t.Errorf("expected nil after delete, got %v", got)
	}
}

func TestAskConsultsDeciders(t *testing.T) {
	obj := MustNew("server", intProp("a"))

	if !obj.Ask("accept", value.Nil) {
		t.Error("with no deciders the answer should be true")
	}

	calls := 0
	obj.OnQuery(func(q string, _ value.Value) bool {
		calls++
		return true
	})
	d := obj.OnQuery(func(q string, _ value.Value) bool {
		calls++
		return false
	})
	obj.OnQuery(func(q string, _ value.Value) bool {
		calls++
		return true
	})

	if obj.Ask("accept", value.Nil) {
		t.Error("a refusing decider should veto")
	}
	if calls != 2 {
		t.Errorf("consultation should stop at the first refusal, got %d calls", calls)
	}

	d.Cancel()
	if !obj.Ask("accept", value.Nil) {
		t.Error("after cancelling the refusing decider the answer should be true")
	}
}
