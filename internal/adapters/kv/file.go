package kv

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/zerr"
)

// FileStore is a KeyValueStore backed by a flat JSON file.
// Every write rewrites the whole file.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
	snap   keySnapshot
}

// NewFileStore creates a FileStore backed by the file at the given path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, zerr.With(domain.ErrInvalidConfig, "reason", "file store requires a path")
	}
	s := &FileStore{
		path:   filepath.Clean(path),
		values: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", s.path)
	}

	return nil
}

// save must be called with the write lock held.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", s.path)
	}

	return nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set stores value under key and persists the file.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.snap.invalidate()
	return s.save()
}

// Delete removes key and persists the file.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	s.snap.invalidate()
	if err := s.save(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "key", key)
	}
	return nil
}

// Count returns the number of keys and snapshots them for KeyAt.
func (s *FileStore) Count() (int, error) {
	return s.snap.refresh(s.keys)
}

// KeyAt returns the i-th key in sorted order.
func (s *FileStore) KeyAt(i int) (string, error) {
	return s.snap.at(i, s.keys)
}

func (s *FileStore) keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return mapKeys(s.values), nil
}

// Close does nothing; every write is already persisted.
func (s *FileStore) Close() error {
	return nil
}
