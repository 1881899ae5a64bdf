package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/value"
)

func testObject(t *testing.T) *observable.Object {
	t.Helper()
	return observable.MustNew("thermostat",
		observable.Descriptor{Name: "temperature", Kind: value.Float, Readable: true, Writable: true, Default: value.FloatVal(21.5)},
		observable.Descriptor{Name: "label", Kind: value.String, Readable: true, Writable: true, Default: value.StringVal("hall")},
		observable.Descriptor{Name: "command", Kind: value.String, Writable: true},
		observable.Descriptor{Name: "serial", Kind: value.String, Readable: true, Default: value.StringVal("T-100")},
	)
}

func TestCaptureReadsReadableProperties(t *testing.T) {
	obj := testObject(t)

	snap, err := Capture(obj)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.Object != "thermostat" {
		t.Errorf("expected object name, got %q", snap.Object)
	}
	if len(snap.Properties) != 3 {
		t.Errorf("expected 3 readable properties, got %d", len(snap.Properties))
	}
	if _, ok := snap.Properties["command"]; ok {
		t.Error("write-only property must not be captured")
	}
	if v := snap.Properties["label"]; !v.Equal(value.StringVal("hall")) {
		t.Errorf("unexpected label %s", v)
	}
}

func TestApplyRestoresWritableProperties(t *testing.T) {
	obj := testObject(t)
	obj.Set("temperature", value.FloatVal(25))
	obj.Set("label", value.StringVal("attic"))

	snap, err := Capture(obj)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	obj.Set("temperature", value.FloatVal(0))
	obj.Set("label", value.StringVal("scratch"))

	if err := Apply(snap, obj); err != nil {
		t.Fatalf("apply: %v", err)
	}
	v, _ := obj.Get("temperature")
	if f, _ := v.Float(); f != 25 {
		t.Errorf("expected restored 25, got %g", f)
	}
	v, _ = obj.Get("label")
	if s, _ := v.Str(); s != "attic" {
		t.Errorf("expected restored label, got %q", s)
	}
}

func TestApplySkipsUnknownAndReadOnly(t *testing.T) {
	obj := testObject(t)
	snap := Snapshot{
		Object: "thermostat",
		Properties: map[string]value.Value{
			"serial":  value.StringVal("hacked"),
			"unknown": value.IntVal(1),
			"label":   value.StringVal("ok"),
		},
	}

	if err := Apply(snap, obj); err != nil {
		t.Fatalf("apply: %v", err)
	}
	v, _ := obj.Get("serial")
	if s, _ := v.Str(); s != "T-100" {
		t.Errorf("read-only property must not change, got %q", s)
	}
	v, _ = obj.Get("label")
	if s, _ := v.Str(); s != "ok" {
		t.Errorf("expected label applied, got %q", s)
	}
}

func TestApplyNotifiesSubscribers(t *testing.T) {
	obj := testObject(t)
	snap, _ := Capture(obj)

	changes := 0
	obj.Subscribe(nil, func(observable.Change) { changes++ })

	if err := Apply(snap, obj); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if changes == 0 {
		t.Error("apply should go through the normal Set path and notify")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	obj := testObject(t)

	snap, _ := Capture(obj)
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "thermostat")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Properties["label"].Equal(value.StringVal("hall")) {
		t.Errorf("unexpected loaded label %s", loaded.Properties["label"])
	}

	// Mutating the loaded copy must not change the stored snapshot.
	loaded.Properties["label"] = value.StringVal("mutated")
	again, _ := store.Load(ctx, "thermostat")
	if !again.Properties["label"].Equal(value.StringVal("hall")) {
		t.Error("store returned an aliased snapshot")
	}

	if err := store.Delete(ctx, "thermostat"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "thermostat"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "thermostat"); err != nil {
		t.Errorf("deleting a missing snapshot should not error: %v", err)
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	obj := testObject(t)
	snap, _ := Capture(obj)

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Object != snap.Object {
		t.Errorf("object name lost: %q", back.Object)
	}
	for name, v := range snap.Properties {
		if !back.Properties[name].Equal(v) {
			t.Errorf("property %q changed across JSON: %s -> %s", name, v, back.Properties[name])
		}
	}
}
