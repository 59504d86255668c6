package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"financeapi.app/config"
)

type fakeSessionStore struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSessionStore) DeleteExpired() error {
	f.calls.Add(1)
	return f.err
}

type fakeWarmer struct {
	calls atomic.Int64
	err   error
}

func (f *fakeWarmer) WarmCategories(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.SessionCleanupInterval = 60
	cfg.Scheduler.CategoriesWarmInterval = 60
	return cfg
}

func TestScheduler_RunsJobsImmediately(t *testing.T) {
	sessions := &fakeSessionStore{}
	warmer := &fakeWarmer{}

	s := NewScheduler(testConfig(), sessions, warmer)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return sessions.calls.Load() >= 1 && warmer.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond, "both jobs run once on start")
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	warmer := &fakeWarmer{}

	s := NewScheduler(testConfig(), &fakeSessionStore{}, warmer)
	s.schedule(10*time.Millisecond, s.warmCategories)

	assert.Eventually(t, func() bool {
		return warmer.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	after := warmer.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, warmer.calls.Load(), "no ticks after Stop")
}

func TestScheduler_JobErrorsAreAbsorbed(t *testing.T) {
	sessions := &fakeSessionStore{err: errors.New("table locked")}
	warmer := &fakeWarmer{err: errors.New("store unreachable")}

	s := NewScheduler(testConfig(), sessions, warmer)
	s.schedule(10*time.Millisecond, s.cleanupExpiredSessions)
	s.schedule(10*time.Millisecond, s.warmCategories)

	assert.Eventually(t, func() bool {
		return sessions.calls.Load() >= 2 && warmer.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond, "failing jobs keep their schedule")

	s.Stop()
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(testConfig(), &fakeSessionStore{}, &fakeWarmer{})
	s.Start()

	s.Stop()
	s.Stop()
}
