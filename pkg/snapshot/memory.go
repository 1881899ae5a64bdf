package snapshot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bindkit-dev/bindkit/pkg/value"
)

// MemoryStore keeps snapshots in process memory. Safe for concurrent use.
// Useful for tests and for single-process setups where persistence across
// restarts is not needed.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]Snapshot)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deep-copy the property map so later mutation of the caller's
	// snapshot does not alias the stored one.
	stored := Snapshot{
		Object:     snap.Object,
		Properties: make(map[string]value.Value, len(snap.Properties)),
	}
	for k, v := range snap.Properties {
		stored.Properties[k] = v
	}
	s.snaps[snap.Object] = stored
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[name]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	out := Snapshot{
		Object:     snap.Object,
		Properties: make(map[string]value.Value, len(snap.Properties)),
	}
	for k, v := range snap.Properties {
		out.Properties[k] = v
	}
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, name)
	return nil
}
