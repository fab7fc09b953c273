package star

import (
	"context"

	"go.starlark.net/starlark"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/zerr"
)

var _ domain.Callable = (*Function)(nil)

// Function is a materialized Starlark function.
type Function struct {
	fn   *starlark.Function
	env  *Environment
	code string
}

// Name returns the name of the def statement.
func (f *Function) Name() string {
	return f.fn.Name()
}

// Source returns the code text the function was materialized from.
func (f *Function) Source() string {
	return f.code
}

// Call converts args to Starlark values, runs the function and converts the result back.
// The call is cancelled when ctx is done.
func (f *Function) Call(ctx context.Context, args ...any) (any, error) {
	tuple := make(starlark.Tuple, 0, len(args))
	for _, a := range args {
		v, err := toStarlark(a)
		if err != nil {
			return nil, zerr.With(err, "module", f.Name())
		}
		tuple = append(tuple, v)
	}

	th, stop := f.env.thread(ctx, f.Name())
	defer stop()

	res, err := starlark.Call(th, f.fn, tuple, nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCallFailed.Error()), "module", f.Name())
	}
	return fromStarlark(res)
}
