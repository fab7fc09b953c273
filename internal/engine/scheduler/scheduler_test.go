package scheduler_test

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/wick/internal/adapters/kv"
	"go.trai.ch/wick/internal/core/domain"
	"go.trai.ch/wick/internal/core/ports/mocks"
	"go.trai.ch/wick/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

const (
	interval = time.Hour
	grace    = 5 * time.Second
)

func newScheduler(t *testing.T, store *kv.MemoryStore, clock clockwork.Clock, cycle scheduler.Cycle) *scheduler.Scheduler {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	return scheduler.NewScheduler(store, domain.NewKeys("w"), clock, log, interval, grace, cycle)
}

func noCycle(context.Context) error { return nil }

func setLastCheck(t *testing.T, store *kv.MemoryStore, at time.Time) {
	t.Helper()
	require.NoError(t, store.Set("w_last_check", strconv.FormatInt(at.UnixMilli(), 10)))
}

func TestNextDelay(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		lastCheck *time.Time
		want      time.Duration
	}{
		{"no last check", nil, interval},
		{"mid interval", ptr(now.Add(-10 * time.Minute)), 50 * time.Minute},
		{"overdue after restart", ptr(now.Add(-interval - 5*time.Second)), grace},
		{"almost due", ptr(now.Add(-interval + time.Second)), grace},
		{"far overdue", ptr(now.Add(-48 * time.Hour)), grace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := kv.NewMemoryStore()
			if tt.lastCheck != nil {
				setLastCheck(t, store, *tt.lastCheck)
			}
			s := newScheduler(t, store, clockwork.NewFakeClockAt(now), noCycle)

			delay, err := s.NextDelay()
			require.NoError(t, err)
			assert.Equal(t, tt.want, delay)
		})
	}
}

func TestNextDelay_InitializesLastCheck(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := kv.NewMemoryStore()
	s := newScheduler(t, store, clockwork.NewFakeClockAt(now), noCycle)

	_, err := s.NextDelay()
	require.NoError(t, err)

	last, ok, err := s.LastCheck()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, now.Equal(last))

	v, ok, _ := store.Get(s.LastCheckKey())
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(now.UnixMilli(), 10), v)
}

func TestLastCheck_Malformed(t *testing.T) {
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set("w_last_check", "yesterday"))
	s := newScheduler(t, store, clockwork.NewFakeClock(), noCycle)

	_, ok, err := s.LastCheck()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStart_RunsAlignedThenPeriodically(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		start := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
		clock := clockwork.NewFakeClockAt(start)
		store := kv.NewMemoryStore()
		setLastCheck(t, store, start.Add(-40*time.Minute))

		var runs atomic.Int32
		s := newScheduler(t, store, clock, func(context.Context) error {
			runs.Add(1)
			return nil
		})

		stop, err := s.Start(context.Background())
		require.NoError(t, err)
		defer stop()
		synctest.Wait()

		clock.Advance(19 * time.Minute)
		synctest.Wait()
		assert.Equal(t, int32(0), runs.Load())

		clock.Advance(time.Minute)
		synctest.Wait()
		assert.Equal(t, int32(1), runs.Load())

		last, _, _ := s.LastCheck()
		assert.True(t, start.Add(20*time.Minute).Equal(last))

		clock.Advance(interval)
		synctest.Wait()
		assert.Equal(t, int32(2), runs.Load())

		last, _, _ = s.LastCheck()
		assert.True(t, start.Add(20*time.Minute+interval).Equal(last))
	})
}

func TestStart_RecoveryUsesGrace(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		start := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
		clock := clockwork.NewFakeClockAt(start)
		store := kv.NewMemoryStore()
		setLastCheck(t, store, start.Add(-interval-5*time.Second))

		var runs atomic.Int32
		s := newScheduler(t, store, clock, func(context.Context) error {
			runs.Add(1)
			return errors.New("partial failure")
		})

		stop, err := s.Start(context.Background())
		require.NoError(t, err)
		defer stop()
		synctest.Wait()

		clock.Advance(grace - time.Second)
		synctest.Wait()
		assert.Equal(t, int32(0), runs.Load())

		clock.Advance(time.Second)
		synctest.Wait()
		assert.Equal(t, int32(1), runs.Load())

		last, _, _ := s.LastCheck()
		assert.True(t, start.Add(grace).Equal(last), "last check is persisted even when the cycle reports errors")
	})
}

func TestStart_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		var runs atomic.Int32
		s := newScheduler(t, kv.NewMemoryStore(), clock, func(context.Context) error {
			runs.Add(1)
			return nil
		})

		stop, err := s.Start(context.Background())
		require.NoError(t, err)
		synctest.Wait()

		stop()
		stop()

		clock.Advance(2 * interval)
		synctest.Wait()
		assert.Equal(t, int32(0), runs.Load())
	})
}

func TestStart_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockKeyValueStore(ctrl)
	log := mocks.NewMockLogger(ctrl)
	store.EXPECT().Get("w_last_check").Return("", false, errors.New("locked"))

	s := scheduler.NewScheduler(store, domain.NewKeys("w"), clockwork.NewFakeClock(), log, interval, grace, noCycle)

	_, err := s.Start(context.Background())
	assert.ErrorContains(t, err, domain.ErrStoreReadFailed.Error())
}

func ptr[T any](v T) *T { return &v }
