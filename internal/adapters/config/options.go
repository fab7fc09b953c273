package config

import "context"

// Options carries command line settings into the dependency graph.
type Options struct {
	// Path is the configuration file to read.
	Path string
	// Namespace overrides the key prefix.
	Namespace string
	// Salt overrides the digest salt.
	Salt string
	// StoreDriver overrides the store driver.
	StoreDriver string
	// StorePath overrides the store path.
	StorePath string
	// LogJSON forces JSON logging.
	LogJSON bool
}

type optionsKey struct{}

// WithOptions returns a copy of ctx carrying opts.
func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// OptionsFrom returns the options stored in ctx, or the defaults.
func OptionsFrom(ctx context.Context) Options {
	if opts, ok := ctx.Value(optionsKey{}).(Options); ok {
		return opts
	}
	return Options{}
}
