// Package snapshot captures and restores the readable property state of
// observable objects, with pluggable persistence backends.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bindkit-dev/bindkit/pkg/observable"
	"github.com/bindkit-dev/bindkit/pkg/value"
)

// ErrNotFound is returned by Store.Load when no snapshot exists for the
// requested object name.
var ErrNotFound = errors.New("snapshot: not found")

// Snapshot is the readable property state of one object at a point in
// time. It serializes to JSON using the value package's wire encoding.
type Snapshot struct {
	Object     string                 `json:"object"`
	Properties map[string]value.Value `json:"properties"`
}

// Store persists snapshots by object name.
type Store interface {
	// Save writes the snapshot, replacing any previous one for the
	// same object name.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the stored snapshot for name, or ErrNotFound.
	Load(ctx context.Context, name string) (Snapshot, error)

	// Delete removes the stored snapshot for name. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, name string) error
}

// Capture reads every readable property of obj into a Snapshot.
func Capture(obj *observable.Object) (Snapshot, error) {
	snap := Snapshot{
		Object:     obj.Name(),
		Properties: make(map[string]value.Value),
	}
	for _, desc := range obj.Properties() {
		if !desc.Readable {
			continue
		}
		v, err := obj.Get(desc.Name)
		if err != nil {
			return Snapshot{}, fmt.Errorf("snapshot: capture %q: %w", desc.Name, err)
		}
		snap.Properties[desc.Name] = v
	}
	return snap, nil
}

// Apply writes the snapshot's values back into obj's writable properties.
// Properties the object does not declare, and declared properties that
// are not writable, are skipped. Each write goes through the object's
// normal Set path, so subscribers (and any live bindings) observe the
// restore as ordinary changes.
func Apply(snap Snapshot, obj *observable.Object) error {
	for name, v := range snap.Properties {
		desc, err := obj.Descriptor(name)
		if err != nil {
			continue
		}
		if !desc.Writable {
			continue
		}
		if err := obj.Set(name, v); err != nil {
			return fmt.Errorf("snapshot: apply %q: %w", name, err)
		}
	}
	return nil
}
