package kv

import (
	"sync"
)

// MemoryStore is a KeyValueStore that lives only as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	snap   keySnapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.snap.invalidate()
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	s.snap.invalidate()
	return nil
}

// Count returns the number of keys and snapshots them for KeyAt.
func (s *MemoryStore) Count() (int, error) {
	return s.snap.refresh(s.keys)
}

// KeyAt returns the i-th key in sorted order.
func (s *MemoryStore) KeyAt(i int) (string, error) {
	return s.snap.at(i, s.keys)
}

func (s *MemoryStore) keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return mapKeys(s.values), nil
}

// Close does nothing.
func (s *MemoryStore) Close() error {
	return nil
}
