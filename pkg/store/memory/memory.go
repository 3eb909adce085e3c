// Package memory implements the store.KV contract with in-process maps.
//
// It is the zero-dependency backend used by unit tests and by deployments
// that do not need mappings to survive a restart.
package memory

import (
	"context"
	"sync"
)

// MemoryStore is a mutex-guarded, map-backed store.KV implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]string
	sets    map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[string]string),
		sets:    make(map[string]map[string]struct{}),
	}
}

// WriteFields upserts the record at key, replacing it entirely.
func (s *MemoryStore) WriteFields(ctx context.Context, key string, fields map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid aliasing the caller's map
	record := make(map[string]string, len(fields))
	for k, v := range fields {
		record[k] = v
	}
	s.records[key] = record

	return nil
}

// ReadAllFields returns a copy of the record at key, or an empty map if
// the key does not exist.
func (s *MemoryStore) ReadAllFields(ctx context.Context, key string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[key]
	out := make(map[string]string, len(record))
	if !exists {
		return out, nil
	}
	for k, v := range record {
		out[k] = v
	}

	return out, nil
}

// AddToSet adds member to the set at setKey, creating the set if needed.
func (s *MemoryStore) AddToSet(ctx context.Context, setKey, member string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, exists := s.sets[setKey]
	if !exists {
		set = make(map[string]struct{})
		s.sets[setKey] = set
	}
	set[member] = struct{}{}

	return nil
}

// RemoveFromSet removes member from the set at setKey. Removing a member
// that is not present is not an error.
func (s *MemoryStore) RemoveFromSet(ctx context.Context, setKey, member string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if set, exists := s.sets[setKey]; exists {
		delete(set, member)
		if len(set) == 0 {
			delete(s.sets, setKey)
		}
	}

	return nil
}

// DeleteKey removes the record at key. Deleting a missing key is not an error.
func (s *MemoryStore) DeleteKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)

	return nil
}

// ListSetMembers returns the members of the set at setKey, unordered.
func (s *MemoryStore) ListSetMembers(ctx context.Context, setKey string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.sets[setKey]
	members := make([]string, 0, len(set))
	for member := range set {
		members = append(members, member)
	}

	return members, nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
