package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wick/internal/adapters/transport"
	"go.trai.ch/wick/internal/core/domain"
)

func TestFetch_HTTP(t *testing.T) {
	var (
		mu     sync.Mutex
		busts  []string
		header string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		busts = append(busts, r.URL.Query().Get(transport.CacheBustParam))
		header = r.Header.Get("Cache-Control")
		mu.Unlock()

		assert.Equal(t, "1", r.URL.Query().Get("v"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("def x():\n    return 1\n"))
	}))
	defer server.Close()

	tr := transport.New(time.Second)
	for i := 0; i < 2; i++ {
		body, err := tr.Fetch(context.Background(), server.URL+"/x.star?v=1")
		require.NoError(t, err)
		assert.Equal(t, "def x():\n    return 1\n", body)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, busts, 2)
	assert.NotEmpty(t, busts[0])
	assert.NotEqual(t, busts[0], busts[1])
	assert.Equal(t, "no-cache", header)
}

func TestFetch_HTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := transport.New(time.Second).Fetch(context.Background(), server.URL+"/missing.star")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrHTTPStatus.Error())
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	_, err := transport.New(time.Second).Fetch(context.Background(), addr+"/x.star")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrTransport.Error())
}

func TestFetch_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := transport.New(time.Second).Fetch(ctx, server.URL)
	require.Error(t, err)
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.star")
	require.NoError(t, os.WriteFile(path, []byte("def lib():\n    pass\n"), 0o600))

	tr := transport.New(0)

	t.Run("file scheme", func(t *testing.T) {
		body, err := tr.Fetch(context.Background(), "file://"+path)
		require.NoError(t, err)
		assert.Equal(t, "def lib():\n    pass\n", body)
	})

	t.Run("bare path", func(t *testing.T) {
		body, err := tr.Fetch(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "def lib():\n    pass\n", body)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := tr.Fetch(context.Background(), filepath.Join(dir, "nope.star"))
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrTransport.Error())
	})
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	_, err := transport.New(0).Fetch(context.Background(), "ftp://example.com/x.star")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrUnsupportedScheme.Error())
}

func TestFetch_SizeLimit(t *testing.T) {
	const body = "def x():\n    return 1\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "x.star")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{name: "exactly at limit", limit: int64(len(body))},
		{name: "one byte over", limit: int64(len(body)) - 1, wantErr: true},
	}

	for _, tt := range tests {
		for _, target := range []string{server.URL + "/x.star", path} {
			t.Run(tt.name+" "+target, func(t *testing.T) {
				tr := transport.New(time.Second)
				tr.SetMaxBodySize(tt.limit)

				got, err := tr.Fetch(context.Background(), target)
				if tt.wantErr {
					require.Error(t, err)
					assert.ErrorContains(t, err, domain.ErrResourceTooLarge.Error())
					assert.Empty(t, got)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, body, got)
			})
		}
	}
}
