// Package modcache persists module code together with its source URL and an
// integrity digest.
package modcache

import (
	"sort"

	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cache stores modules in a key/value store under one namespace.
type Cache struct {
	store  ports.KeyValueStore
	sum    ports.Checksummer
	logger ports.Logger
	keys   domain.Keys
	salt   string
}

// New creates a Cache for namespace. Digests are computed with salt.
func New(store ports.KeyValueStore, sum ports.Checksummer, logger ports.Logger, namespace, salt string) *Cache {
	return &Cache{
		store:  store,
		sum:    sum,
		logger: logger,
		keys:   domain.NewKeys(namespace),
		salt:   salt,
	}
}

// Keys returns the key layout of the cache.
func (c *Cache) Keys() domain.Keys {
	return c.keys
}

// Checksum returns the digest code would be stored with.
func (c *Cache) Checksum(code string) string {
	return c.sum.Digest(code, c.salt)
}

// Read returns the code of name if an entry exists and its digest verifies.
// A tampered entry is reported as absent.
func (c *Cache) Read(name string) (string, bool, error) {
	code, ok, err := c.get(c.keys.Code(name))
	if err != nil || !ok {
		return "", false, err
	}
	digest, ok, err := c.get(c.keys.Digest(name))
	if err != nil || !ok {
		return "", false, err
	}

	if c.Checksum(code) != digest {
		c.logger.Debug("cache entry failed verification", "module", name)
		return "", false, nil
	}
	return code, true, nil
}

// Entry returns the stored slots of name without verifying them.
func (c *Cache) Entry(name string) (domain.Module, bool, error) {
	code, ok, err := c.get(c.keys.Code(name))
	if err != nil || !ok {
		return domain.Module{}, false, err
	}
	url, _, err := c.get(c.keys.URL(name))
	if err != nil {
		return domain.Module{}, false, err
	}
	digest, _, err := c.get(c.keys.Digest(name))
	if err != nil {
		return domain.Module{}, false, err
	}
	return domain.Module{Name: name, URL: url, Code: code, Digest: digest}, true, nil
}

// URL returns the source URL recorded for name.
func (c *Cache) URL(name string) (string, bool, error) {
	return c.get(c.keys.URL(name))
}

// Digest returns the digest recorded for name.
func (c *Cache) Digest(name string) (string, bool, error) {
	return c.get(c.keys.Digest(name))
}

// Write stores code, url and the digest of code for name.
func (c *Cache) Write(name, url, code string) error {
	slots := [][2]string{
		{c.keys.Code(name), code},
		{c.keys.URL(name), url},
		{c.keys.Digest(name), c.Checksum(code)},
	}
	for _, s := range slots {
		if err := c.store.Set(s[0], s[1]); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "module", name)
		}
	}
	return nil
}

// Delete removes the entry of name.
func (c *Cache) Delete(name string) error {
	for _, key := range []string{c.keys.Code(name), c.keys.URL(name), c.keys.Digest(name)} {
		if err := c.store.Delete(key); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "module", name)
		}
	}
	return nil
}

// DeleteAll removes every key of the namespace, including scheduler state.
// Keys of other namespaces are left untouched. It returns the number of removed keys.
func (c *Cache) DeleteAll() (int, error) {
	keys, err := c.ownedKeys()
	if err != nil {
		return 0, err
	}
	for i, key := range keys {
		if err := c.store.Delete(key); err != nil {
			return i, zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "key", key)
		}
	}
	return len(keys), nil
}

// Names returns the sorted names of all modules with a digest slot.
func (c *Cache) Names() ([]string, error) {
	keys, err := c.ownedKeys()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, key := range keys {
		if name, ok := c.keys.ModuleFromDigestKey(key); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ownedKeys snapshots the namespace keys before any of them is removed,
// since deletion shifts the positions of KeyAt.
func (c *Cache) ownedKeys() ([]string, error) {
	n, err := c.store.Count()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var keys []string
	for i := range n {
		key, err := c.store.KeyAt(i)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "index", i)
		}
		if c.keys.Owns(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (c *Cache) get(key string) (string, bool, error) {
	v, ok, err := c.store.Get(key)
	if err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return v, ok, nil
}
