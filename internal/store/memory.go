package store

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded snapshots in memory. It is used by tests and
// by the server when no data directory is configured.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

var _ SnapshotStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, snap *Snapshot) error {
	if err := ValidateID(snap.ID); err != nil {
		return err
	}
	data, err := encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[snap.ID] = data
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	s.mu.Lock()
	data, ok := s.items[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decode(data)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}
