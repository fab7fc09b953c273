package kv

import (
	"errors"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	redisScanCount   = 100
	redisIdleTimeout = 4 * time.Minute
	redisMaxIdle     = 4
)

// RedisStore is a KeyValueStore backed by a Redis server.
// Keys are prefixed with "<origin>:" so several origins can share a server.
type RedisStore struct {
	pool   *redis.Pool
	prefix string
	snap   keySnapshot
}

// NewRedisStore creates a RedisStore using connections from pool.
func NewRedisStore(pool *redis.Pool, origin string) *RedisStore {
	return &RedisStore{pool: pool, prefix: origin + ":"}
}

// DialRedis connects to the server at addr and verifies it answers.
func DialRedis(addr, origin string) (*RedisStore, error) {
	if addr == "" {
		return nil, zerr.With(domain.ErrInvalidConfig, "reason", "redis store requires an address")
	}

	pool := &redis.Pool{
		MaxIdle:     redisMaxIdle,
		IdleTimeout: redisIdleTimeout,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr)
		},
	}

	conn := pool.Get()
	defer conn.Close() //nolint:errcheck // Connection returns to the pool

	if _, err := conn.Do("PING"); err != nil {
		_ = pool.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreOpenFailed.Error()), "addr", addr)
	}

	return NewRedisStore(pool, origin), nil
}

// Get returns the value stored under key.
func (s *RedisStore) Get(key string) (string, bool, error) {
	conn := s.pool.Get()
	defer conn.Close() //nolint:errcheck // Connection returns to the pool

	v, err := redis.String(conn.Do("GET", s.prefix+key))
	if errors.Is(err, redis.ErrNil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key)
	}
	return v, true, nil
}

// Set stores value under key.
func (s *RedisStore) Set(key, value string) error {
	defer s.snap.invalidate()

	conn := s.pool.Get()
	defer conn.Close() //nolint:errcheck // Connection returns to the pool

	if _, err := conn.Do("SET", s.prefix+key, value); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "key", key)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(key string) error {
	defer s.snap.invalidate()

	conn := s.pool.Get()
	defer conn.Close() //nolint:errcheck // Connection returns to the pool

	if _, err := conn.Do("DEL", s.prefix+key); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "key", key)
	}
	return nil
}

// Count scans the keys of the origin and snapshots them for KeyAt.
// Keys written by other clients show up at the next Count.
func (s *RedisStore) Count() (int, error) {
	return s.snap.refresh(s.keys)
}

// KeyAt returns the i-th key of the origin in sorted order.
func (s *RedisStore) KeyAt(i int) (string, error) {
	return s.snap.at(i, s.keys)
}

// Close closes the connection pool.
func (s *RedisStore) Close() error {
	return s.pool.Close()
}

// keys scans every key of the origin with the prefix stripped.
func (s *RedisStore) keys() ([]string, error) {
	conn := s.pool.Get()
	defer conn.Close() //nolint:errcheck // Connection returns to the pool

	pattern := escapeGlob(s.prefix) + "*"
	seen := make(map[string]struct{})
	cursor := 0
	for {
		reply, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", pattern, "COUNT", redisScanCount))
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}

		var batch []string
		if _, err := redis.Scan(reply, &cursor, &batch); err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
		for _, k := range batch {
			seen[strings.TrimPrefix(k, s.prefix)] = struct{}{}
		}

		if cursor == 0 {
			break
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	return keys, nil
}

// escapeGlob quotes the characters that are special in a Redis MATCH pattern.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
