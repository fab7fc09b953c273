package loader_test

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
	"go.trai.ch/wick/internal/engine/loader"
	"go.trai.ch/wick/internal/engine/modcache"
	"go.trai.ch/wick/internal/engine/registry"
	"go.uber.org/mock/gomock"
)

const (
	libURL    = "https://example.com/lib.star"
	libScript = `
def inc(x):
    return x + 1

lib = module("lib", inc = inc)
answer = 42
`
	incCode = "def inc(x):\n    return x + 1\n"
)

type harness struct {
	loader    *loader.Loader
	env       *star.Environment
	registry  *registry.Registry
	cache     *modcache.Cache
	transport *mocks.MockTransport
	reporter  *mocks.MockErrorReporter
}

func newHarness(t *testing.T, store *kv.MemoryStore) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	h := &harness{
		env:       star.New(log),
		registry:  registry.New(),
		cache:     modcache.New(store, checksum.New(), log, "w", "salt"),
		transport: mocks.NewMockTransport(ctrl),
		reporter:  mocks.NewMockErrorReporter(ctrl),
	}
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Complete(gomock.Any()).AnyTimes()
	tel := mocks.NewMockTelemetry(ctrl)
	tel.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(context.Background(), vertex).AnyTimes()

	f := fetcher.New(h.transport, h.env, telemetry.NewNoOpTracer())
	h.loader = loader.New(h.registry, h.cache, f, h.env, h.env, h.reporter, tel, log)
	return h
}

func call(t *testing.T, fn domain.Callable, args ...any) any {
	t.Helper()
	res, err := fn.Call(context.Background(), args...)
	require.NoError(t, err)
	return res
}

func TestGet_FetchesThenServesFromRegistry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())
		h.transport.EXPECT().Fetch(gomock.Any(), libURL).Return(libScript, nil).Times(1)

		var first domain.Callable
		h.loader.Get(context.Background(), "inc", libURL, func(fn domain.Callable) { first = fn })
		synctest.Wait()

		require.NotNil(t, first)
		assert.Equal(t, int64(42), call(t, first, 41))

		code, ok, err := h.cache.Read("inc")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, incCode, code)

		var second domain.Callable
		h.loader.Get(context.Background(), "inc", "https://elsewhere.example/other.star", func(fn domain.Callable) {
			second = fn
		})
		assert.Same(t, first, second, "registry hit must be served synchronously")
	})
}

func TestGet_CoalescesConcurrentRequests(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())

		release := make(chan struct{})
		h.transport.EXPECT().Fetch(gomock.Any(), libURL).DoAndReturn(func(context.Context, string) (string, error) {
			<-release
			return libScript, nil
		}).Times(1)

		got := make([]domain.Callable, 0, 5)
		for range 5 {
			h.loader.Get(context.Background(), "lib.inc", libURL, func(fn domain.Callable) {
				got = append(got, fn)
			})
		}
		close(release)
		synctest.Wait()

		require.Len(t, got, 5)
		for _, fn := range got {
			assert.Equal(t, int64(2), call(t, fn, 1))
		}
	})
}

func TestGet_VerifiedCacheSkipsNetwork(t *testing.T) {
	store := kv.NewMemoryStore()
	seed := newHarness(t, store)
	require.NoError(t, seed.cache.Write("inc", libURL, incCode))

	h := newHarness(t, store)

	var got domain.Callable
	h.loader.Get(context.Background(), "inc", libURL, func(fn domain.Callable) { got = fn })

	require.NotNil(t, got)
	assert.Equal(t, int64(8), call(t, got, 7))
	_, ok := h.registry.Get("inc")
	assert.True(t, ok)
}

func TestGet_CachedCodeBindsScriptNamesLate(t *testing.T) {
	const script = "def helper(x):\n    return x * 10\n\ndef bump(x):\n    return helper(x) + 1\n"
	store := kv.NewMemoryStore()

	synctest.Test(t, func(t *testing.T) {
		first := newHarness(t, store)
		first.transport.EXPECT().Fetch(gomock.Any(), libURL).Return(script, nil).Times(1)

		var got domain.Callable
		first.loader.Get(context.Background(), "bump", libURL, func(fn domain.Callable) { got = fn })
		synctest.Wait()
		require.NotNil(t, got)
		assert.Equal(t, int64(21), call(t, got, 2))
	})

	h := newHarness(t, store)

	var got domain.Callable
	h.loader.Get(context.Background(), "bump", libURL, func(fn domain.Callable) { got = fn })
	require.NotNil(t, got, "cached code must load without fetching")

	_, err := got.Call(context.Background(), 2)
	assert.ErrorContains(t, err, "undefined: helper")

	require.NoError(t, h.env.Evaluate(context.Background(), libURL, script))
	assert.Equal(t, int64(31), call(t, got, 3))
}

func TestGet_TamperedCacheRefetches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		store := kv.NewMemoryStore()
		h := newHarness(t, store)
		require.NoError(t, h.cache.Write("inc", libURL, incCode))
		require.NoError(t, store.Set("w_inc", "def inc(x):\n    return x - 1\n"))

		h.transport.EXPECT().Fetch(gomock.Any(), libURL).Return(libScript, nil).Times(1)

		var got domain.Callable
		h.loader.Get(context.Background(), "inc", libURL, func(fn domain.Callable) { got = fn })
		synctest.Wait()

		require.NotNil(t, got)
		assert.Equal(t, int64(2), call(t, got, 1))

		code, ok, _ := h.cache.Read("inc")
		assert.True(t, ok)
		assert.Equal(t, incCode, code)
	})
}

func TestGet_AmbientWritesThrough(t *testing.T) {
	h := newHarness(t, kv.NewMemoryStore())
	require.NoError(t, h.env.Evaluate(context.Background(), "preload.star", libScript))

	var got domain.Callable
	h.loader.Get(context.Background(), "lib.inc", libURL, func(fn domain.Callable) { got = fn })

	require.NotNil(t, got)
	assert.Equal(t, int64(11), call(t, got, 10))

	entry, ok, err := h.cache.Entry("lib.inc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, libURL, entry.URL)
	assert.Equal(t, incCode, entry.Code)
}

func TestGet_Failures(t *testing.T) {
	tests := []struct {
		name    string
		module  string
		script  string
		fetch   error
		wantErr error
	}{
		{"transport", "inc", "", errors.New("connection refused"), domain.ErrTransport},
		{"missing module", "dec", libScript, nil, domain.ErrModuleNotFound},
		{"not a function", "answer", libScript, nil, domain.ErrModuleNotFound},
		{"script error", "inc", "def (", nil, domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				h := newHarness(t, kv.NewMemoryStore())
				h.transport.EXPECT().Fetch(gomock.Any(), libURL).Return(tt.script, tt.fetch)

				var reported error
				h.reporter.EXPECT().Report(gomock.Any()).Do(func(err error) { reported = err })

				called := false
				h.loader.Get(context.Background(), tt.module, libURL, func(domain.Callable) { called = true })
				synctest.Wait()

				assert.False(t, called)
				require.Error(t, reported)
				assert.ErrorContains(t, reported, tt.wantErr.Error())
			})
		})
	}
}

func TestLoad(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())
		h.transport.EXPECT().Fetch(gomock.Any(), libURL).Return(libScript, nil).Times(2)

		fn, err := h.loader.Load(context.Background(), "inc", libURL)
		require.NoError(t, err)
		assert.Equal(t, "inc", fn.Name())

		_, err = h.loader.Load(context.Background(), "nope", libURL)
		assert.ErrorContains(t, err, domain.ErrModuleNotFound.Error())
	})
}

func TestLoad_ContextDone(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, kv.NewMemoryStore())

		release := make(chan struct{})
		h.transport.EXPECT().Fetch(gomock.Any(), libURL).DoAndReturn(func(context.Context, string) (string, error) {
			<-release
			return libScript, nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h.loader.Load(ctx, "inc", libURL)
		assert.ErrorIs(t, err, context.Canceled)

		close(release)
		synctest.Wait()
	})
}

func TestRestore(t *testing.T) {
	store := kv.NewMemoryStore()
	seed := newHarness(t, store)
	require.NoError(t, seed.cache.Write("inc", libURL, incCode))
	require.NoError(t, seed.cache.Write("bad", libURL, "def broken(:\n"))
	require.NoError(t, seed.cache.Write("tampered", libURL, incCode))
	require.NoError(t, store.Set("w_tampered", "x = 1\n"))

	h := newHarness(t, store)
	n, err := h.loader.Restore(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"inc"}, h.registry.Names())
}
