// Package app implements the application layer for wick.
package app

import (
	"context"
	"errors"
	"time"

	"go.trai.ch/wick/internal/adapters/report"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/wick/internal/engine/loader"
	"go.trai.ch/wick/internal/engine/modcache"
	"go.trai.ch/wick/internal/engine/scheduler"
	"go.trai.ch/wick/internal/engine/updater"
	"golang.org/x/sync/errgroup"
)

// preloadConcurrency bounds the number of preload scripts read at once.
const preloadConcurrency = 8

// Client is the module loader used by applications.
type Client struct {
	loader    *loader.Loader
	updater   *updater.Updater
	scheduler *scheduler.Scheduler
	cache     *modcache.Cache
	transport ports.Transport
	evaluator ports.Evaluator
	hook      *report.Hook
	logger    ports.Logger
}

// New creates a new Client.
func New(
	l *loader.Loader,
	u *updater.Updater,
	s *scheduler.Scheduler,
	cache *modcache.Cache,
	transport ports.Transport,
	evaluator ports.Evaluator,
	hook *report.Hook,
	log ports.Logger,
) *Client {
	return &Client{
		loader:    l,
		updater:   u,
		scheduler: s,
		cache:     cache,
		transport: transport,
		evaluator: evaluator,
		hook:      hook,
		logger:    log,
	}
}

// Get hands the module name, loaded from url if needed, to cb.
// Failures go to the OnError handler and cb is not called.
func (c *Client) Get(ctx context.Context, name, url string, cb loader.Callback) {
	c.loader.Get(ctx, name, url, cb)
}

// Require loads the module name and waits for it. Failures are returned.
// Callers bound the wait with ctx.
func (c *Client) Require(ctx context.Context, name, url string) (domain.Callable, error) {
	return c.loader.Load(ctx, name, url)
}

// Check reports whether the remote code of the cached module name changed.
func (c *Client) Check(ctx context.Context, name string, cb updater.CheckFunc) {
	c.updater.Check(ctx, name, cb)
}

// Update checks name and caches changed code for the next session.
func (c *Client) Update(ctx context.Context, name string, cb updater.UpdateFunc) {
	c.updater.Update(ctx, name, cb)
}

// CheckAll checks every module loaded in this session.
func (c *Client) CheckAll(ctx context.Context, cb updater.CheckAllFunc) {
	c.updater.CheckAll(ctx, cb)
}

// UpdateAll checks every module loaded in this session and caches the changes.
func (c *Client) UpdateAll(ctx context.Context, cb updater.UpdateFunc) {
	c.updater.UpdateAll(ctx, cb)
}

// Changed is the blocking form of Check.
func (c *Client) Changed(ctx context.Context, name string) (domain.Change, bool, error) {
	return c.updater.Changed(ctx, name)
}

// Refresh is the blocking form of Update.
func (c *Client) Refresh(ctx context.Context, name string) (bool, error) {
	return c.updater.Refresh(ctx, name)
}

// RefreshAll is the blocking form of UpdateAll.
func (c *Client) RefreshAll(ctx context.Context) ([]domain.Change, error) {
	return c.updater.RefreshAll(ctx)
}

// StartPeriodicUpdates runs UpdateAll on the configured interval until ctx is
// done or the returned stop function is called.
func (c *Client) StartPeriodicUpdates(ctx context.Context) (stop func(), err error) {
	return c.scheduler.Start(ctx)
}

// NextCheck returns the delay until the next periodic check and the check interval.
func (c *Client) NextCheck() (delay, interval time.Duration, err error) {
	delay, err = c.scheduler.NextDelay()
	return delay, c.scheduler.Interval(), err
}

// Flush removes the cache entries of names. Without names, every key of the
// namespace is removed.
func (c *Client) Flush(names ...string) error {
	if len(names) == 0 {
		n, err := c.cache.DeleteAll()
		if err != nil {
			return err
		}
		c.logger.Debug("flushed namespace", "keys", n)
		return nil
	}

	var errs error
	for _, name := range names {
		errs = errors.Join(errs, c.cache.Delete(name))
	}
	return errs
}

// OnError replaces the handler of errors that are not returned to callers.
// A nil handler restores logging.
func (c *Client) OnError(fn func(err error)) {
	c.hook.Set(fn)
}

// Preload evaluates scripts into the ambient namespace in the given order.
// Scripts are retrieved concurrently through the transport, so local paths and
// URLs are both accepted.
func (c *Client) Preload(ctx context.Context, paths ...string) error {
	sources := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			src, err := c.transport.Fetch(gctx, path)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range paths {
		if err := c.evaluator.Evaluate(ctx, path, sources[i]); err != nil {
			return err
		}
	}
	return nil
}

// Cached returns the cached modules in name order.
func (c *Client) Cached() ([]domain.Module, error) {
	names, err := c.cache.Names()
	if err != nil {
		return nil, err
	}

	modules := make([]domain.Module, 0, len(names))
	for _, name := range names {
		m, ok, err := c.cache.Entry(name)
		if err != nil {
			return nil, err
		}
		if ok {
			modules = append(modules, m)
		}
	}
	return modules, nil
}

// Verified reports whether the cache entry of name passes verification.
func (c *Client) Verified(name string) (bool, error) {
	_, ok, err := c.cache.Read(name)
	return ok, err
}

// Restore registers every verified cached module, so CheckAll and UpdateAll
// cover modules loaded in earlier sessions.
func (c *Client) Restore(ctx context.Context) (int, error) {
	return c.loader.Restore(ctx)
}
