package kv_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wick/internal/adapters/kv"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
)

type storeFactory func(t *testing.T) ports.KeyValueStore

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(_ *testing.T) ports.KeyValueStore {
			return kv.NewMemoryStore()
		},
		"file": func(t *testing.T) ports.KeyValueStore {
			s, err := kv.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
			require.NoError(t, err)
			return s
		},
		"bolt": func(t *testing.T) ports.KeyValueStore {
			s, err := kv.OpenBolt(filepath.Join(t.TempDir(), "store.db"), "origin")
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) ports.KeyValueStore {
			srv := miniredis.RunT(t)
			s, err := kv.DialRedis(srv.Addr(), "origin")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStores(t *testing.T) {
	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			t.Run("get missing", func(t *testing.T) {
				s := newStore(t)
				defer func() { _ = s.Close() }()

				v, ok, err := s.Get("nope")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Empty(t, v)
			})

			t.Run("set get overwrite", func(t *testing.T) {
				s := newStore(t)
				defer func() { _ = s.Close() }()

				require.NoError(t, s.Set("k", "v1"))
				require.NoError(t, s.Set("k", "v2"))

				v, ok, err := s.Get("k")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "v2", v)
			})

			t.Run("empty value is present", func(t *testing.T) {
				s := newStore(t)
				defer func() { _ = s.Close() }()

				require.NoError(t, s.Set("k", ""))
				_, ok, err := s.Get("k")
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("delete", func(t *testing.T) {
				s := newStore(t)
				defer func() { _ = s.Close() }()

				require.NoError(t, s.Set("k", "v"))
				require.NoError(t, s.Delete("k"))
				require.NoError(t, s.Delete("k"))

				_, ok, err := s.Get("k")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("enumerate sorted", func(t *testing.T) {
				s := newStore(t)
				defer func() { _ = s.Close() }()

				for _, k := range []string{"c", "a", "b"} {
					require.NoError(t, s.Set(k, k))
				}

				n, err := s.Count()
				require.NoError(t, err)
				require.Equal(t, 3, n)

				var keys []string
				for i := 0; i < n; i++ {
					k, err := s.KeyAt(i)
					require.NoError(t, err)
					keys = append(keys, k)
				}
				assert.Equal(t, []string{"a", "b", "c"}, keys)

				_, err = s.KeyAt(n)
				require.Error(t, err)
				assert.ErrorContains(t, err, domain.ErrKeyIndexOutOfRange.Error())
			})

			t.Run("enumeration follows writes", func(t *testing.T) {
				s := newStore(t)
				defer func() { _ = s.Close() }()

				require.NoError(t, s.Set("a", "a"))
				require.NoError(t, s.Set("c", "c"))

				n, err := s.Count()
				require.NoError(t, err)
				require.Equal(t, 2, n)

				k, err := s.KeyAt(1)
				require.NoError(t, err)
				assert.Equal(t, "c", k)

				require.NoError(t, s.Set("b", "b"))
				k, err = s.KeyAt(1)
				require.NoError(t, err)
				assert.Equal(t, "b", k)

				require.NoError(t, s.Delete("a"))
				k, err = s.KeyAt(0)
				require.NoError(t, err)
				assert.Equal(t, "b", k)
			})
		})
	}
}

func TestFileStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	s1, err := kv.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set("wicked_x", "def x():\n    return 1\n"))

	s2, err := kv.NewFileStore(path)
	require.NoError(t, err)

	v, ok, err := s2.Get("wicked_x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "def x():\n    return 1\n", v)
}

func TestBoltStore_OriginsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	a, err := kv.OpenBolt(path, "a")
	require.NoError(t, err)
	require.NoError(t, a.Set("k", "from a"))
	require.NoError(t, a.Close())

	b, err := kv.OpenBolt(path, "b")
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	_, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := b.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisStore_PrefixesKeys(t *testing.T) {
	srv := miniredis.RunT(t)
	require.NoError(t, srv.Set("unrelated", "x"))
	require.NoError(t, srv.Set("other:k", "x"))

	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", srv.Addr())
		},
	}
	s := kv.NewRedisStore(pool, "o*rigin")
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Set("k", "v"))
	assert.True(t, srv.Exists("o*rigin:k"))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	k, err := s.KeyAt(0)
	require.NoError(t, err)
	assert.Equal(t, "k", k)
}

func TestRedisStore_EnumerationScansOnce(t *testing.T) {
	srv := miniredis.RunT(t)
	s, err := kv.DialRedis(srv.Addr(), "origin")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	for i := range 50 {
		require.NoError(t, s.Set(fmt.Sprintf("k%02d", i), "v"))
	}

	before := srv.CommandCount()

	n, err := s.Count()
	require.NoError(t, err)
	require.Equal(t, 50, n)
	for i := range n {
		k, err := s.KeyAt(i)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("k%02d", i), k)
	}

	// One SCAN pass: 50 keys fit into a single batch.
	assert.Equal(t, 1, srv.CommandCount()-before)
}

func TestDialRedis_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := kv.DialRedis(addr, "origin")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrStoreOpenFailed.Error())
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := kv.Open(domain.StoreConfig{Driver: domain.StoreDriverMemory})
		require.NoError(t, err)
		assert.IsType(t, &kv.MemoryStore{}, s)
	})

	t.Run("bolt", func(t *testing.T) {
		s, err := kv.Open(domain.StoreConfig{
			Driver: domain.StoreDriverBolt,
			Path:   filepath.Join(t.TempDir(), "store.db"),
		})
		require.NoError(t, err)
		defer func() { _ = s.Close() }()
		assert.IsType(t, &kv.BoltStore{}, s)
	})

	t.Run("file without path", func(t *testing.T) {
		_, err := kv.Open(domain.StoreConfig{Driver: domain.StoreDriverFile})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrInvalidConfig.Error())
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := kv.Open(domain.StoreConfig{Driver: "etcd"})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrUnknownStoreDriver.Error())
	})
}
