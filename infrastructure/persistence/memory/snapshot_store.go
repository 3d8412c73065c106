// Package memory provides a process-local snapshot store for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"
)

// SnapshotStore keeps snapshots in a map
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites makes Put and Delete return this error when set
	FailWrites error
}

// NewSnapshotStore creates an empty store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{data: make(map[string][]byte)}
}

// Get returns a copy of the stored bytes
func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put stores a copy of data
func (s *SnapshotStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	v := make([]byte, len(data))
	copy(v, data)
	s.data[key] = v
	return nil
}

// Delete removes the value for key
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.data, key)
	return nil
}

// SetFailWrites makes subsequent writes fail with err; nil restores normal behavior
func (s *SnapshotStore) SetFailWrites(err error) {
	s.mu.Lock()
	s.FailWrites = err
	s.mu.Unlock()
}
