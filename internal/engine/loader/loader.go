// Package loader resolves modules by name, from the fastest source that has them:
// the session registry, the verified cache, the ambient namespace, and finally
// the network.
package loader

import (
	"context"

	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/wick/internal/engine/fetcher"
	"go.trai.ch/wick/internal/engine/modcache"
	"go.trai.ch/wick/internal/engine/registry"
	"go.trai.ch/zerr"
)

// Callback receives a loaded module.
type Callback func(fn domain.Callable)

// Loader implements module resolution.
type Loader struct {
	registry     *registry.Registry
	cache        *modcache.Cache
	fetcher      *fetcher.Fetcher
	resolver     ports.Resolver
	materializer ports.Materializer
	reporter     ports.ErrorReporter
	telemetry    ports.Telemetry
	logger       ports.Logger
}

// New creates a Loader.
func New(
	reg *registry.Registry,
	cache *modcache.Cache,
	f *fetcher.Fetcher,
	resolver ports.Resolver,
	materializer ports.Materializer,
	reporter ports.ErrorReporter,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Loader {
	return &Loader{
		registry:     reg,
		cache:        cache,
		fetcher:      f,
		resolver:     resolver,
		materializer: materializer,
		reporter:     reporter,
		telemetry:    telemetry,
		logger:       logger,
	}
}

// Get hands the module name to cb. Modules already in the registry, the cache or
// the ambient namespace are handed over before Get returns. Otherwise url is
// fetched and cb runs once the fetched script defines name.
//
// Failures go to the error reporter and cb is not called.
func (l *Loader) Get(ctx context.Context, name, url string, cb Callback) {
	l.get(ctx, name, url, func(fn domain.Callable, err error) {
		if err != nil {
			l.reporter.Report(err)
			return
		}
		cb(fn)
	})
}

// Load is the blocking form of Get. Failures are returned instead of reported.
func (l *Loader) Load(ctx context.Context, name, url string) (domain.Callable, error) {
	type result struct {
		fn  domain.Callable
		err error
	}
	done := make(chan result, 1)
	l.get(ctx, name, url, func(fn domain.Callable, err error) {
		done <- result{fn: fn, err: err}
	})

	select {
	case r := <-done:
		return r.fn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Restore registers every cached module that verifies. It returns the number of
// registered modules.
func (l *Loader) Restore(ctx context.Context) (int, error) {
	names, err := l.cache.Names()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, name := range names {
		if _, ok := l.registry.Get(name); ok {
			n++
			continue
		}
		if _, ok := l.fromCache(name); ok {
			l.record(ctx, name, domain.SourceCache)
			n++
		}
	}
	return n, nil
}

func (l *Loader) get(ctx context.Context, name, url string, settle func(domain.Callable, error)) {
	if fn, ok := l.registry.Get(name); ok {
		l.record(ctx, name, domain.SourceRegistry)
		settle(fn, nil)
		return
	}

	if fn, ok := l.fromCache(name); ok {
		l.record(ctx, name, domain.SourceCache)
		settle(fn, nil)
		return
	}

	fn, ok, err := l.fromAmbient(name, url)
	if err != nil {
		settle(nil, err)
		return
	}
	if ok {
		l.record(ctx, name, domain.SourceAmbient)
		settle(fn, nil)
		return
	}

	_, vertex := l.telemetry.Record(ctx, vertexName(name), ports.WithSource(domain.SourceNetwork))
	l.fetcher.Load(ctx, url, func(fetchErr error) {
		fn, err := l.afterFetch(name, url, fetchErr)
		vertex.Complete(err)
		settle(fn, err)
	})
}

func (l *Loader) afterFetch(name, url string, fetchErr error) (domain.Callable, error) {
	if fetchErr != nil {
		err := zerr.Wrap(fetchErr, domain.ErrTransport.Error())
		return nil, zerr.With(zerr.With(err, "module", name), "url", url)
	}

	// Another waiter on the same retrieval may have registered it already.
	if fn, ok := l.registry.Get(name); ok {
		return fn, nil
	}

	fn, ok, err := l.fromAmbient(name, url)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, zerr.With(zerr.With(domain.ErrModuleNotFound, "module", name), "url", url)
	}
	return fn, nil
}

// fromCache materializes a verified cache entry. Entries that fail to
// materialize are treated as missing.
func (l *Loader) fromCache(name string) (domain.Callable, bool) {
	code, ok, err := l.cache.Read(name)
	if err != nil {
		l.logger.Warn("cache read failed", "module", name, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	fn, err := l.materializer.Materialize(code)
	if err != nil {
		l.logger.Warn("cached module failed to materialize", "module", name, "error", err)
		return nil, false
	}

	l.registry.Set(name, fn)
	return fn, true
}

// fromAmbient serializes the function name resolves to, writes it through to the
// cache and materializes it from the serialized text.
func (l *Loader) fromAmbient(name, url string) (domain.Callable, bool, error) {
	v, ok := l.resolver.Resolve(name)
	if !ok {
		return nil, false, nil
	}

	code, err := l.materializer.Serialize(v)
	if err != nil {
		l.logger.Debug("ambient value is not a module", "module", name, "error", err)
		return nil, false, nil
	}

	if err := l.cache.Write(name, url, code); err != nil {
		l.logger.Warn("module not cached", "module", name, "error", err)
	}

	fn, err := l.materializer.Materialize(code)
	if err != nil {
		return nil, false, zerr.With(err, "module", name)
	}

	l.registry.Set(name, fn)
	return fn, true, nil
}

func (l *Loader) record(ctx context.Context, name string, src domain.LoadSource) {
	_, vertex := l.telemetry.Record(ctx, vertexName(name), ports.WithSource(src))
	vertex.Complete(nil)
}

func vertexName(name string) string {
	return "load " + name
}
