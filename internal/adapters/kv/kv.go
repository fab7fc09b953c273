// Package kv implements the persistent key/value stores backing the module cache.
package kv

import (
	"sort"
	"sync"

	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.KeyValueStore = (*MemoryStore)(nil)
	_ ports.KeyValueStore = (*FileStore)(nil)
	_ ports.KeyValueStore = (*BoltStore)(nil)
	_ ports.KeyValueStore = (*RedisStore)(nil)
)

// Open opens the store selected by cfg.
func Open(cfg domain.StoreConfig) (ports.KeyValueStore, error) {
	origin := cfg.Origin
	if origin == "" {
		origin = domain.DefaultOrigin
	}

	switch cfg.Driver {
	case domain.StoreDriverBolt, "":
		path := cfg.Path
		if path == "" {
			path = domain.DefaultStorePath
		}
		return OpenBolt(path, origin)
	case domain.StoreDriverRedis:
		return DialRedis(cfg.Addr, origin)
	case domain.StoreDriverFile:
		return NewFileStore(cfg.Path)
	case domain.StoreDriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, zerr.With(domain.ErrUnknownStoreDriver, "driver", cfg.Driver)
	}
}

// keySnapshot holds the sorted keys of one enumeration. Count starts a new
// enumeration, KeyAt reads from it, and every write through the store drops it.
type keySnapshot struct {
	mu    sync.Mutex
	keys  []string
	valid bool
}

// refresh loads a new snapshot and returns its size.
func (s *keySnapshot) refresh(load func() ([]string, error)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(load); err != nil {
		return 0, err
	}
	return len(s.keys), nil
}

// at returns the i-th key of the current snapshot, loading one if needed.
func (s *keySnapshot) at(i int, load func() ([]string, error)) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid {
		if err := s.loadLocked(load); err != nil {
			return "", err
		}
	}
	if i < 0 || i >= len(s.keys) {
		err := zerr.With(domain.ErrKeyIndexOutOfRange, "index", i)
		return "", zerr.With(err, "count", len(s.keys))
	}
	return s.keys[i], nil
}

func (s *keySnapshot) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys, s.valid = nil, false
}

func (s *keySnapshot) loadLocked(load func() ([]string, error)) error {
	keys, err := load()
	if err != nil {
		s.keys, s.valid = nil, false
		return err
	}
	sort.Strings(keys)
	s.keys, s.valid = keys, true
	return nil
}

// mapKeys returns the keys of values.
func mapKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	return keys
}
