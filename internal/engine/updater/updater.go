// Package updater detects and applies upstream changes to cached modules.
package updater

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/wick/internal/engine/fetcher"
	"go.trai.ch/wick/internal/engine/modcache"
	"go.trai.ch/wick/internal/engine/registry"
	"go.trai.ch/zerr"
)

// CheckFunc receives the outcome of a check. change is only set when changed is true.
type CheckFunc func(changed bool, change domain.Change)

// UpdateFunc receives whether a module was changed and written to the cache.
type UpdateFunc func(changed bool)

// ApplyFunc writes the changes found by CheckAll to the cache.
type ApplyFunc func() error

// CheckAllFunc receives the aggregate outcome of CheckAll.
type CheckAllFunc func(anyChanged bool, apply ApplyFunc)

// Updater re-fetches the sources of cached modules and compares digests.
type Updater struct {
	registry     *registry.Registry
	cache        *modcache.Cache
	fetcher      *fetcher.Fetcher
	resolver     ports.Resolver
	materializer ports.Materializer
	reporter     ports.ErrorReporter
	tracer       ports.Tracer
}

// New creates an Updater.
func New(
	reg *registry.Registry,
	cache *modcache.Cache,
	f *fetcher.Fetcher,
	resolver ports.Resolver,
	materializer ports.Materializer,
	reporter ports.ErrorReporter,
	tracer ports.Tracer,
) *Updater {
	return &Updater{
		registry:     reg,
		cache:        cache,
		fetcher:      f,
		resolver:     resolver,
		materializer: materializer,
		reporter:     reporter,
		tracer:       tracer,
	}
}

// Check reports whether the remote code of name differs from the cached code.
// A module without cache entry is reported unchanged without any fetch.
// Failures go to the error reporter and cb is not called.
func (u *Updater) Check(ctx context.Context, name string, cb CheckFunc) {
	u.check(ctx, name, func(changed bool, change domain.Change, err error) {
		if err != nil {
			u.reporter.Report(err)
			return
		}
		cb(changed, change)
	})
}

// Update runs Check and writes changed code to the cache. The registered
// callable is left in place; the new code takes effect on the next materialization.
func (u *Updater) Update(ctx context.Context, name string, cb UpdateFunc) {
	u.Check(ctx, name, func(changed bool, change domain.Change) {
		if changed {
			if err := u.apply([]domain.Change{change}); err != nil {
				u.reporter.Report(err)
				return
			}
		}
		cb(changed)
	})
}

// CheckAll checks every registered module concurrently and calls cb once all
// checks have settled. A failed check counts as unchanged.
func (u *Updater) CheckAll(ctx context.Context, cb CheckAllFunc) {
	u.checkAll(ctx, func(changes []domain.Change, errs error) {
		if errs != nil {
			u.reporter.Report(errs)
		}
		cb(len(changes) > 0, func() error { return u.apply(changes) })
	})
}

// UpdateAll runs CheckAll and applies the changes right away.
func (u *Updater) UpdateAll(ctx context.Context, cb UpdateFunc) {
	u.CheckAll(ctx, func(anyChanged bool, apply ApplyFunc) {
		if anyChanged {
			if err := apply(); err != nil {
				u.reporter.Report(err)
			}
		}
		cb(anyChanged)
	})
}

// Changed is the blocking form of Check. Failures are returned instead of reported.
func (u *Updater) Changed(ctx context.Context, name string) (domain.Change, bool, error) {
	type result struct {
		changed bool
		change  domain.Change
		err     error
	}
	done := make(chan result, 1)
	u.check(ctx, name, func(changed bool, change domain.Change, err error) {
		done <- result{changed: changed, change: change, err: err}
	})

	select {
	case r := <-done:
		return r.change, r.changed, r.err
	case <-ctx.Done():
		return domain.Change{}, false, ctx.Err()
	}
}

// Refresh is the blocking form of Update.
func (u *Updater) Refresh(ctx context.Context, name string) (bool, error) {
	change, changed, err := u.Changed(ctx, name)
	if err != nil || !changed {
		return false, err
	}
	if err := u.apply([]domain.Change{change}); err != nil {
		return false, err
	}
	return true, nil
}

// RefreshAll is the blocking form of UpdateAll. It returns the applied changes
// together with the joined errors of failed checks.
func (u *Updater) RefreshAll(ctx context.Context) ([]domain.Change, error) {
	type result struct {
		changes []domain.Change
		errs    error
	}
	done := make(chan result, 1)
	u.checkAll(ctx, func(changes []domain.Change, errs error) {
		done <- result{changes: changes, errs: errs}
	})

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := u.apply(r.changes); err != nil {
		return nil, errors.Join(r.errs, err)
	}
	return r.changes, r.errs
}

func (u *Updater) check(ctx context.Context, name string, settle func(bool, domain.Change, error)) {
	url, ok, err := u.cache.URL(name)
	if err != nil {
		settle(false, domain.Change{}, zerr.With(err, "module", name))
		return
	}
	if !ok {
		settle(false, domain.Change{}, nil)
		return
	}

	ctx, span := u.tracer.Start(ctx, "check", ports.WithAttribute("module", name), ports.WithAttribute("url", url))
	u.fetcher.Load(ctx, url, func(fetchErr error) {
		defer span.End()

		changed, change, err := u.compare(name, url, fetchErr)
		if err != nil {
			span.RecordError(err)
		}
		span.SetAttribute("changed", changed)
		settle(changed, change, err)
	})
}

func (u *Updater) compare(name, url string, fetchErr error) (bool, domain.Change, error) {
	if fetchErr != nil {
		err := zerr.Wrap(fetchErr, domain.ErrCheckTransport.Error())
		return false, domain.Change{}, zerr.With(zerr.With(err, "module", name), "url", url)
	}

	v, ok := u.resolver.Resolve(name)
	if !ok {
		return false, domain.Change{}, zerr.With(zerr.With(domain.ErrCheckModuleNotFound, "module", name), "url", url)
	}
	code, err := u.materializer.Serialize(v)
	if err != nil {
		err = zerr.Wrap(err, domain.ErrCheckModuleNotFound.Error())
		return false, domain.Change{}, zerr.With(zerr.With(err, "module", name), "url", url)
	}

	stored, _, err := u.cache.Digest(name)
	if err != nil {
		return false, domain.Change{}, zerr.With(err, "module", name)
	}
	if u.cache.Checksum(code) == stored {
		return false, domain.Change{}, nil
	}
	return true, domain.Change{Name: name, URL: url, Code: code}, nil
}

// checkAll runs check for every registered module and joins the outcomes.
func (u *Updater) checkAll(ctx context.Context, done func([]domain.Change, error)) {
	names := u.registry.Names()
	if len(names) == 0 {
		done(nil, nil)
		return
	}
	u.tracer.EmitPlan(ctx, names)

	var (
		mu      sync.Mutex
		changes []domain.Change
		errs    error
		pending atomic.Int64
	)
	pending.Store(int64(len(names)))

	for _, name := range names {
		u.check(ctx, name, func(changed bool, change domain.Change, err error) {
			mu.Lock()
			if err != nil {
				errs = errors.Join(errs, err)
			}
			if changed {
				changes = append(changes, change)
			}
			mu.Unlock()

			if pending.Add(-1) == 0 {
				mu.Lock()
				c, e := changes, errs
				mu.Unlock()
				done(c, e)
			}
		})
	}
}

func (u *Updater) apply(changes []domain.Change) error {
	var errs error
	for _, c := range changes {
		if err := u.cache.Write(c.Name, c.URL, c.Code); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if errs != nil {
		return zerr.Wrap(errs, domain.ErrUpdateApplyFailed.Error())
	}
	return nil
}
