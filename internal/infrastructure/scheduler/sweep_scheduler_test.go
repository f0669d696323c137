package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hrcore/promotion/internal/application/integration"
	"github.com/hrcore/promotion/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (s *countingSweeper) SweepDue(ctx context.Context) (*integration.SweepResult, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &integration.SweepResult{Due: 2, Completed: 1, Failed: 1}, nil
}

func (s *countingSweeper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type settableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *settableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *settableClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func testConfig(t *testing.T) SweepSchedulerConfig {
	t.Helper()
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return SweepSchedulerConfig{
		Hour:          0,
		Minute:        10,
		Location:      seoul,
		CheckInterval: 2 * time.Millisecond,
		JobTimeout:    time.Second,
	}
}

func TestNewAppointmentSweepScheduler_ValidatesConfig(t *testing.T) {
	bad := DefaultSweepSchedulerConfig()
	bad.Minute = 60
	_, err := NewAppointmentSweepScheduler(bad, &countingSweeper{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	bad = DefaultSweepSchedulerConfig()
	bad.CheckInterval = 0
	_, err = NewAppointmentSweepScheduler(bad, &countingSweeper{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAppointmentSweepScheduler_RunsOncePerBusinessDay(t *testing.T) {
	cfg := testConfig(t)
	sweeper := &countingSweeper{}
	s, err := NewAppointmentSweepScheduler(cfg, sweeper, zap.NewNop())
	require.NoError(t, err)

	// 2027-01-01 00:05 in Seoul, before the sweep time
	clock := &settableClock{now: time.Date(2026, 12, 31, 15, 5, 0, 0, time.UTC)}
	s.SetClock(clock.Now)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sweeper.Calls())

	clock.Set(time.Date(2026, 12, 31, 15, 10, 0, 0, time.UTC))
	require.True(t, testutil.WaitForCondition(t, func() bool { return sweeper.Calls() == 1 }, time.Second, time.Millisecond))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sweeper.Calls(), "same day does not run twice")

	status := s.Status()
	assert.Equal(t, JobStatusSuccess, status.Status)
	assert.Equal(t, "2027-01-01", status.LastRunDate)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, 1, status.LastResult.Completed)

	clock.Set(time.Date(2027, 1, 1, 20, 0, 0, 0, time.UTC))
	require.True(t, testutil.WaitForCondition(t, func() bool { return sweeper.Calls() == 2 }, time.Second, time.Millisecond))
	require.True(t, testutil.WaitForCondition(t, func() bool { return s.Status().LastRunDate == "2027-01-02" }, time.Second, time.Millisecond))
}

func TestAppointmentSweepScheduler_RunOnStart(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunOnStart = true
	cfg.CheckInterval = time.Hour
	sweeper := &countingSweeper{err: errors.New("db down")}
	s, err := NewAppointmentSweepScheduler(cfg, sweeper, zap.NewNop())
	require.NoError(t, err)
	s.SetClock(testutil.FixedClock(time.Date(2026, 12, 31, 15, 0, 0, 0, time.UTC)))

	require.NoError(t, s.Start(context.Background()))
	require.True(t, testutil.WaitForCondition(t, func() bool { return s.Status().Status == JobStatusFailed }, time.Second, time.Millisecond))
	assert.Equal(t, "db down", s.Status().Error)
	assert.Equal(t, 1, sweeper.Calls())
	require.NoError(t, s.Stop(context.Background()))
}

func TestAppointmentSweepScheduler_TriggerNow(t *testing.T) {
	cfg := testConfig(t)
	cfg.CheckInterval = time.Hour
	sweeper := &countingSweeper{}
	s, err := NewAppointmentSweepScheduler(cfg, sweeper, zap.NewNop())
	require.NoError(t, err)

	_, err = s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	result, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Due)
	assert.Empty(t, s.Status().LastRunDate, "manual runs do not consume the daily slot")
}

func TestAppointmentSweepScheduler_RejectsOverlap(t *testing.T) {
	cfg := testConfig(t)
	cfg.CheckInterval = time.Hour
	sweeper := &countingSweeper{block: make(chan struct{})}
	s, err := NewAppointmentSweepScheduler(cfg, sweeper, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := s.TriggerNow(context.Background())
		done <- err
	}()
	require.True(t, testutil.WaitForCondition(t, func() bool { return s.Status().Status == JobStatusRunning }, time.Second, time.Millisecond))

	_, err = s.TriggerNow(context.Background())
	assert.ErrorIs(t, err, ErrSweepInProgress)

	close(sweeper.block)
	require.NoError(t, <-done)
}

func TestAppointmentSweepScheduler_StopWaitsForLoop(t *testing.T) {
	s, err := NewAppointmentSweepScheduler(testConfig(t), &countingSweeper{}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Stop(context.Background()), "stopping an idle scheduler is a no-op")
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
