package ports

import (
	"context"

	"go.trai.ch/wick/internal/core/domain"
)

//go:generate mockgen -source=runtime.go -destination=mocks/mock_runtime.go -package=mocks

// Evaluator runs fetched scripts and merges their top-level declarations into
// the shared ambient namespace.
type Evaluator interface {
	// Evaluate executes src. filename identifies the script in errors and source lookups.
	Evaluate(ctx context.Context, filename, src string) error
}

// Resolver looks up values in the ambient namespace.
type Resolver interface {
	// Resolve resolves a dot-delimited path starting from the global root.
	Resolve(path string) (any, bool)
}

// Materializer converts between callables and their code text.
type Materializer interface {
	// Materialize turns code text defining exactly one function into a callable.
	Materialize(code string) (domain.Callable, error)

	// Serialize returns the exact code text of a resolved value.
	// It fails with domain.ErrNotCallable if the value is not a function.
	Serialize(value any) (string, error)
}

// ErrorReporter receives the errors that are not returned to callers.
type ErrorReporter interface {
	// Report surfaces err to the user.
	Report(err error)
}
