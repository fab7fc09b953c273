package registry_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wick/internal/engine/registry"
)

type fakeCallable string

func (f fakeCallable) Name() string { return string(f) }

func (f fakeCallable) Call(context.Context, ...any) (any, error) { return string(f), nil }

func TestRegistry(t *testing.T) {
	r := registry.New()

	_, ok := r.Get("a")
	assert.False(t, ok)

	r.Set("b", fakeCallable("b1"))
	r.Set("a", fakeCallable("a"))
	r.Set("b", fakeCallable("b2"))

	fn, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b2", fn.Name())
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := registry.New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			name := fmt.Sprintf("m%d", i%10)
			r.Set(name, fakeCallable(name))
			_, _ = r.Get(name)
			_ = r.Names()
		})
	}
	wg.Wait()

	assert.Equal(t, 10, r.Len())
}
