// Package ports defines the core interfaces for the application.
package ports

// KeyValueStore is an origin-scoped, synchronous, string-only persistent store.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false if the key does not exist.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Count returns the number of keys in the store.
	Count() (int, error)

	// KeyAt returns the i-th key in sorted order.
	KeyAt(i int) (string, error)

	// Close releases the resources held by the store.
	Close() error
}
