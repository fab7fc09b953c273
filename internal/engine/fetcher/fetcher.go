// Package fetcher retrieves remote scripts into the ambient namespace, issuing
// at most one retrieval per URL at a time.
package fetcher

import (
	"context"
	"sync"

	"go.trai.ch/wick/internal/core/ports"
)

// SettleFunc receives the outcome of a retrieval. A nil error means the
// script was evaluated and its declarations are available for resolution.
type SettleFunc func(err error)

// Fetcher coalesces concurrent loads of the same URL.
type Fetcher struct {
	transport ports.Transport
	evaluator ports.Evaluator
	tracer    ports.Tracer

	mu     sync.Mutex
	queues map[string][]SettleFunc
}

// New creates a Fetcher.
func New(transport ports.Transport, evaluator ports.Evaluator, tracer ports.Tracer) *Fetcher {
	return &Fetcher{
		transport: transport,
		evaluator: evaluator,
		tracer:    tracer,
		queues:    make(map[string][]SettleFunc),
	}
}

// Load queues onSettled for url and starts a retrieval if none is in flight.
// Callbacks queued for the same retrieval run in FIFO order on the retrieving
// goroutine. Once they have run, a later Load retrieves url again.
//
// The retrieval is detached from ctx cancellation since other callers may be
// waiting on it.
func (f *Fetcher) Load(ctx context.Context, url string, onSettled SettleFunc) {
	f.mu.Lock()
	queue, inFlight := f.queues[url]
	f.queues[url] = append(queue, onSettled)
	f.mu.Unlock()

	if inFlight {
		return
	}
	go f.retrieve(context.WithoutCancel(ctx), url)
}

// Wait loads url and blocks until the retrieval settles or ctx is done.
func (f *Fetcher) Wait(ctx context.Context, url string) error {
	done := make(chan error, 1)
	f.Load(ctx, url, func(err error) { done <- err })

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of URLs with a retrieval in flight.
func (f *Fetcher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queues)
}

func (f *Fetcher) retrieve(ctx context.Context, url string) {
	f.settle(url, f.fetch(ctx, url))
}

func (f *Fetcher) fetch(ctx context.Context, url string) error {
	ctx, span := f.tracer.Start(ctx, "fetch", ports.WithAttribute("url", url))
	defer span.End()

	src, err := f.transport.Fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttribute("bytes", len(src))

	if err := f.evaluator.Evaluate(ctx, url, src); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// settle drains the queue of url. Callbacks added while draining receive the
// same outcome; the entry is removed only once the queue is empty.
func (f *Fetcher) settle(url string, err error) {
	for {
		f.mu.Lock()
		queue := f.queues[url]
		if len(queue) == 0 {
			delete(f.queues, url)
			f.mu.Unlock()
			return
		}
		f.queues[url] = queue[:0:0]
		f.mu.Unlock()

		for _, cb := range queue {
			cb(err)
		}
	}
}
