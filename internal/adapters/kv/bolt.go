package kv

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/zerr"
)

const boltOpenTimeout = time.Second

// BoltStore is a KeyValueStore backed by a bbolt database.
// Each origin owns one bucket, so several origins can share a database file.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	snap   keySnapshot
}

// OpenBolt opens (creating if needed) the database at path and its bucket for origin.
func OpenBolt(path, origin string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
	}

	db, err := bolt.Open(path, domain.FilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "path", path)
	}

	s := &BoltStore{db: db, bucket: []byte(origin)}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "origin", origin)
	}

	return s, nil
}

// Get returns the value stored under key.
func (s *BoltStore) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return value, found, nil
}

// Set stores value under key.
func (s *BoltStore) Set(key, value string) error {
	defer s.snap.invalidate()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", key)
	}
	return nil
}

// Delete removes key.
func (s *BoltStore) Delete(key string) error {
	defer s.snap.invalidate()

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "key", key)
	}
	return nil
}

// Count returns the number of keys in the origin's bucket and snapshots them for KeyAt.
func (s *BoltStore) Count() (int, error) {
	return s.snap.refresh(s.keys)
}

// KeyAt returns the i-th key in sorted order.
func (s *BoltStore) KeyAt(i int) (string, error) {
	return s.snap.at(i, s.keys)
}

// keys walks the bucket once. bbolt keeps keys in byte order, which is sorted order.
func (s *BoltStore) keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	return keys, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
