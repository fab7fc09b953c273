// Package domain contains the core types of the module loader.
package domain

import "context"

// Callable is a materialized module that can be invoked for the current session.
type Callable interface {
	// Name returns the name of the function defined by the module code.
	Name() string

	// Call invokes the module with the given arguments and returns its result.
	Call(ctx context.Context, args ...any) (any, error)
}

// Module is a persisted cache entry: the code of a module together with the URL
// it was loaded from and the digest protecting it.
type Module struct {
	Name   string
	URL    string
	Code   string
	Digest string
}

// Change describes a cached module whose remote code no longer matches the stored digest.
type Change struct {
	Name string
	URL  string
	Code string
}
