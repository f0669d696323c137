package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hrcore/promotion/internal/application/integration"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last sweep
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Sweeper replays due personnel appointments
type Sweeper interface {
	SweepDue(ctx context.Context) (*integration.SweepResult, error)
}

// SweepSchedulerConfig holds the daily trigger settings
type SweepSchedulerConfig struct {
	Hour          int
	Minute        int
	Location      *time.Location
	CheckInterval time.Duration
	JobTimeout    time.Duration
	RunOnStart    bool
}

// DefaultSweepSchedulerConfig runs at 00:10 local time
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Hour:          0,
		Minute:        10,
		Location:      time.Local,
		CheckInterval: time.Minute,
		JobTimeout:    30 * time.Minute,
	}
}

func (c SweepSchedulerConfig) validate() error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("%w: sweep time %02d:%02d", ErrInvalidConfig, c.Hour, c.Minute)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if c.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidConfig)
	}
	return nil
}

// SweepStatus is a snapshot of the scheduler state
type SweepStatus struct {
	Status      JobStatus
	LastRunDate string
	StartedAt   *time.Time
	CompletedAt *time.Time
	LastResult  *integration.SweepResult
	Error       string
}

// AppointmentSweepScheduler runs the appointment sweep once per business day.
// A day's run fires at the first check at or after the configured time, so a
// process started late in the day still catches up.
type AppointmentSweepScheduler struct {
	config  SweepSchedulerConfig
	sweeper Sweeper
	logger  *zap.Logger
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool
	status    SweepStatus
}

// NewAppointmentSweepScheduler creates a scheduler. It does nothing until Start.
func NewAppointmentSweepScheduler(config SweepSchedulerConfig, sweeper Sweeper, logger *zap.Logger) (*AppointmentSweepScheduler, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &AppointmentSweepScheduler{
		config:  config,
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
		status:  SweepStatus{Status: JobStatusPending},
	}, nil
}

// SetClock overrides the time source
func (s *AppointmentSweepScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start launches the trigger loop
func (s *AppointmentSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Appointment sweep scheduler started",
		zap.String("sweep_time", fmt.Sprintf("%02d:%02d", s.config.Hour, s.config.Minute)),
		zap.String("location", s.config.Location.String()),
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Bool("run_on_start", s.config.RunOnStart))
	return nil
}

// Stop cancels the loop and waits for a running sweep until ctx expires
func (s *AppointmentSweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Appointment sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNow runs a sweep immediately, outside the daily schedule
func (s *AppointmentSweepScheduler) TriggerNow(ctx context.Context) (*integration.SweepResult, error) {
	s.mu.Lock()
	running := s.isRunning
	s.mu.Unlock()
	if !running {
		return nil, ErrSchedulerNotRunning
	}
	return s.sweep(ctx, "")
}

// Status returns a snapshot of the last run
func (s *AppointmentSweepScheduler) Status() SweepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *AppointmentSweepScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.check(ctx, true)
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx, false)
		}
	}
}

// check starts the day's sweep if it is due and has not run yet
func (s *AppointmentSweepScheduler) check(ctx context.Context, force bool) {
	now := s.now().In(s.config.Location)
	today := now.Format(time.DateOnly)

	s.mu.Lock()
	done := s.status.LastRunDate == today
	s.mu.Unlock()
	if done {
		return
	}

	fireAt := time.Date(now.Year(), now.Month(), now.Day(), s.config.Hour, s.config.Minute, 0, 0, s.config.Location)
	if !force && now.Before(fireAt) {
		return
	}

	if _, err := s.sweep(ctx, today); err != nil && err != ErrSweepInProgress {
		s.logger.Error("Scheduled appointment sweep failed", zap.String("date", today), zap.Error(err))
	}
}

// sweep runs one sweep. day, when set, is recorded as the run date so the
// daily trigger does not fire again for it.
func (s *AppointmentSweepScheduler) sweep(ctx context.Context, day string) (*integration.SweepResult, error) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return nil, ErrSweepInProgress
	}
	s.sweeping = true
	started := s.now()
	s.status.Status = JobStatusRunning
	s.status.StartedAt = &started
	if day != "" {
		s.status.LastRunDate = day
	}
	s.mu.Unlock()

	runCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	result, err := s.sweeper.SweepDue(runCtx)
	completed := s.now()

	s.mu.Lock()
	s.sweeping = false
	s.status.CompletedAt = &completed
	s.status.LastResult = result
	if err != nil {
		s.status.Status = JobStatusFailed
		s.status.Error = err.Error()
	} else {
		s.status.Status = JobStatusSuccess
		s.status.Error = ""
	}
	s.mu.Unlock()

	if err != nil {
		return result, err
	}
	s.logger.Info("Appointment sweep finished",
		zap.Int("due", result.Due),
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", completed.Sub(started)))
	return result, nil
}
