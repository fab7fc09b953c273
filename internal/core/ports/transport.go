package ports

import "context"

// Transport retrieves the text of a remote resource.
//
//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks
type Transport interface {
	// Fetch retrieves the resource at url, bypassing any transport-level cache.
	Fetch(ctx context.Context, url string) (string, error)
}
