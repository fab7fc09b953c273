package updater_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wick/internal/adapters/checksum"
	"go.trai.ch/wick/internal/adapters/kv"
	"go.trai.ch/wick/internal/adapters/star"
	"go.trai.ch/wick/internal/adapters/telemetry"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports/mocks"
	"go.trai.ch/wick/internal/engine/fetcher"
	"go.trai.ch/wick/internal/engine/modcache"
	"go.trai.ch/wick/internal/engine/registry"
	"go.trai.ch/wick/internal/engine/updater"
	"go.uber.org/mock/gomock"
)

const (
	xURL = "https://example.com/x.star"
	yURL = "https://example.com/y.star"
	v1   = "def X():\n    return 1\n"
	v2   = "def X():\n    return 2\n"
	y1   = "def Y():\n    return 1\n"
)

type harness struct {
	updater   *updater.Updater
	registry  *registry.Registry
	cache     *modcache.Cache
	env       *star.Environment
	transport *mocks.MockTransport
	reporter  *mocks.MockErrorReporter
}

func newHarness(t *testing.T, store *kv.MemoryStore) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	h := &harness{
		registry:  registry.New(),
		cache:     modcache.New(store, checksum.New(), log, "w", "salt"),
		env:       star.New(log),
		transport: mocks.NewMockTransport(ctrl),
		reporter:  mocks.NewMockErrorReporter(ctrl),
	}
	tracer := telemetry.NewNoOpTracer()
	f := fetcher.New(h.transport, h.env, tracer)
	h.updater = updater.New(h.registry, h.cache, f, h.env, h.env, h.reporter, tracer)
	return h
}

// register caches code under name and registers its materialized callable.
func (h *harness) register(t *testing.T, name, url, code string) {
	t.Helper()
	require.NoError(t, h.cache.Write(name, url, code))
	fn, err := h.env.Materialize(code)
	require.NoError(t, err)
	h.registry.Set(name, fn)
}

func TestCheck_NotCachedSkipsFetch(t *testing.T) {
	h := newHarness(t, kv.NewMemoryStore())

	called := false
	h.updater.Check(context.Background(), "X", func(changed bool, _ domain.Change) {
		called = true
		assert.False(t, changed)
	})
	assert.True(t, called, "callback must run synchronously")
}

func TestCheck_Unchanged(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())
		h.register(t, "X", xURL, v1)
		h.transport.EXPECT().Fetch(gomock.Any(), xURL).Return(v1, nil)

		var got *bool
		h.updater.Check(context.Background(), "X", func(changed bool, _ domain.Change) { got = &changed })
		synctest.Wait()

		require.NotNil(t, got)
		assert.False(t, *got)
	})
}

func TestCheckThenUpdate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		store := kv.NewMemoryStore()
		h := newHarness(t, store)
		h.register(t, "X", xURL, v1)
		h.transport.EXPECT().Fetch(gomock.Any(), xURL).Return(v2, nil).Times(2)

		var change domain.Change
		h.updater.Check(context.Background(), "X", func(changed bool, c domain.Change) {
			assert.True(t, changed)
			change = c
		})
		synctest.Wait()

		assert.Equal(t, domain.Change{Name: "X", URL: xURL, Code: v2}, change)
		code, _, _ := h.cache.Read("X")
		assert.Equal(t, v1, code, "check must not modify the cache")

		var updated bool
		h.updater.Update(context.Background(), "X", func(changed bool) { updated = changed })
		synctest.Wait()

		assert.True(t, updated)
		digest, _, _ := h.cache.Digest("X")
		assert.Equal(t, checksum.New().Digest(v2, "salt"), digest)

		fn, _ := h.registry.Get("X")
		res, err := fn.Call(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), res, "registered callable is not hot-swapped")
	})
}

func TestCheck_Failures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		fetch   error
		wantErr error
	}{
		{"transport", "", errors.New("offline"), domain.ErrCheckTransport},
		{"module gone", "def Z():\n    pass\n", nil, domain.ErrCheckModuleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				h := newHarness(t, kv.NewMemoryStore())
				require.NoError(t, h.cache.Write("X", xURL, v1))
				h.transport.EXPECT().Fetch(gomock.Any(), xURL).Return(tt.script, tt.fetch)

				var reported error
				h.reporter.EXPECT().Report(gomock.Any()).Do(func(err error) { reported = err })

				called := false
				h.updater.Check(context.Background(), "X", func(bool, domain.Change) { called = true })
				synctest.Wait()

				assert.False(t, called)
				assert.ErrorContains(t, reported, tt.wantErr.Error())
			})
		})
	}
}

func TestCheckAll(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())
		h.register(t, "X", xURL, v1)
		h.register(t, "Y", yURL, y1)
		h.transport.EXPECT().Fetch(gomock.Any(), xURL).Return(v2, nil)
		h.transport.EXPECT().Fetch(gomock.Any(), yURL).Return(y1, nil)

		calls := 0
		var apply updater.ApplyFunc
		h.updater.CheckAll(context.Background(), func(anyChanged bool, fn updater.ApplyFunc) {
			calls++
			assert.True(t, anyChanged)
			apply = fn
		})
		synctest.Wait()

		require.Equal(t, 1, calls)
		code, _, _ := h.cache.Read("X")
		assert.Equal(t, v1, code)

		require.NoError(t, apply())
		code, _, _ = h.cache.Read("X")
		assert.Equal(t, v2, code)
	})
}

func TestCheckAll_FailureCountsAsUnchanged(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())
		h.register(t, "X", xURL, v1)
		h.register(t, "Y", yURL, y1)
		h.transport.EXPECT().Fetch(gomock.Any(), xURL).Return("", errors.New("offline"))
		h.transport.EXPECT().Fetch(gomock.Any(), yURL).Return(y1, nil)
		h.reporter.EXPECT().Report(gomock.Any()).Times(1)

		calls := 0
		h.updater.CheckAll(context.Background(), func(anyChanged bool, _ updater.ApplyFunc) {
			calls++
			assert.False(t, anyChanged)
		})
		synctest.Wait()

		assert.Equal(t, 1, calls)
	})
}

func TestCheckAll_EmptyRegistry(t *testing.T) {
	h := newHarness(t, kv.NewMemoryStore())

	called := false
	h.updater.CheckAll(context.Background(), func(anyChanged bool, apply updater.ApplyFunc) {
		called = true
		assert.False(t, anyChanged)
		assert.NoError(t, apply())
	})
	assert.True(t, called)
}

func TestUpdateAll(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())
		h.register(t, "X", xURL, v1)
		h.transport.EXPECT().Fetch(gomock.Any(), xURL).Return(v2, nil)

		var changed bool
		h.updater.UpdateAll(context.Background(), func(c bool) { changed = c })
		synctest.Wait()

		assert.True(t, changed)
		code, _, _ := h.cache.Read("X")
		assert.Equal(t, v2, code)
	})
}

func TestBlockingForms(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())
		h.register(t, "X", xURL, v1)
		h.register(t, "Y", yURL, y1)
		h.transport.EXPECT().Fetch(gomock.Any(), xURL).Return(v2, nil).Times(3)
		h.transport.EXPECT().Fetch(gomock.Any(), yURL).Return("", errors.New("offline"))

		change, changed, err := h.updater.Changed(context.Background(), "X")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, v2, change.Code)

		changes, err := h.updater.RefreshAll(context.Background())
		assert.ErrorContains(t, err, domain.ErrCheckTransport.Error())
		assert.Equal(t, []domain.Change{{Name: "X", URL: xURL, Code: v2}}, changes)

		changed, err = h.updater.Refresh(context.Background(), "X")
		require.NoError(t, err)
		assert.False(t, changed, "already applied")
	})
}
