// Package scheduler runs the periodic update cycle. The time of the last
// completed cycle is persisted, so a restarted client keeps its phase.
package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cycle is one update pass over all registered modules.
type Cycle func(ctx context.Context) error

// Scheduler triggers a Cycle every interval.
type Scheduler struct {
	store    ports.KeyValueStore
	keys     domain.Keys
	clock    clockwork.Clock
	logger   ports.Logger
	interval time.Duration
	grace    time.Duration
	cycle    Cycle
}

// NewScheduler creates a Scheduler that runs cycle every interval. The first
// run is never sooner than grace.
func NewScheduler(
	store ports.KeyValueStore,
	keys domain.Keys,
	clock clockwork.Clock,
	logger ports.Logger,
	interval time.Duration,
	grace time.Duration,
	cycle Cycle,
) *Scheduler {
	return &Scheduler{
		store:    store,
		keys:     keys,
		clock:    clock,
		logger:   logger,
		interval: interval,
		grace:    grace,
		cycle:    cycle,
	}
}

// Interval returns the period between cycles.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// LastCheck returns the persisted time of the last completed cycle.
func (s *Scheduler) LastCheck() (time.Time, bool, error) {
	v, ok, err := s.store.Get(s.keys.LastCheck())
	if err != nil {
		return time.Time{}, false, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}
	if !ok {
		return time.Time{}, false, nil
	}

	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		s.logger.Warn("ignoring malformed last check", "value", v)
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// NextDelay returns the delay until the next cycle. A missing last check is
// initialized to now.
func (s *Scheduler) NextDelay() (time.Duration, error) {
	now := s.clock.Now()

	last, ok, err := s.LastCheck()
	if err != nil {
		return 0, err
	}
	if !ok {
		if err := s.markChecked(now); err != nil {
			return 0, err
		}
		last = now
	}

	delay := last.Add(s.interval).Sub(now)
	if delay < s.grace {
		delay = s.grace
	}
	return delay, nil
}

// Start runs cycles in the background until ctx is done or stop is called.
// The first cycle runs after NextDelay, later cycles on a fixed interval.
// stop waits for a running cycle to return.
func (s *Scheduler) Start(ctx context.Context) (stop func(), err error) {
	delay, err := s.NextDelay()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.loop(ctx, delay)
	}()

	s.logger.Debug("update schedule started", "delay", delay, "interval", s.interval)

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}, nil
}

func (s *Scheduler) loop(ctx context.Context, delay time.Duration) {
	timer := s.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.Chan():
	}

	// The ticker is created before the first cycle, so the period is measured
	// from the alignment tick and not from the end of the cycle.
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if err := s.cycle(ctx); err != nil {
		s.logger.Warn("update cycle finished with errors", "error", err)
	}
	if ctx.Err() != nil {
		return
	}
	if err := s.markChecked(s.clock.Now()); err != nil {
		s.logger.Error(err)
	}
}

func (s *Scheduler) markChecked(t time.Time) error {
	if err := s.store.Set(s.keys.LastCheck(), strconv.FormatInt(t.UnixMilli(), 10)); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}
