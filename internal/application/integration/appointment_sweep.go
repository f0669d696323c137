package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/shared"
	"go.uber.org/zap"
)

// SystemActorID is recorded as ChangedBy for changes made by the scheduled sweep
var SystemActorID = uuid.Nil

// DefaultSweepBatchSize bounds how many due appointments one query loads
const DefaultSweepBatchSize = 500

// SweepResult summarizes one appointment sweep
type SweepResult struct {
	Due       int            `json:"due"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Failures  []SweepFailure `json:"failures,omitempty"`
}

// SweepFailure describes an appointment that could not be applied
type SweepFailure struct {
	AppointmentID  uuid.UUID `json:"appointment_id"`
	EmployeeNumber string    `json:"employee_number"`
	Reason         string    `json:"reason"`
}

// AppointmentSweeper replays pending appointments whose effective date has
// arrived. Each appointment is applied in its own transaction; a failure is
// recorded on the appointment and does not stop the rest of the batch.
type AppointmentSweeper struct {
	appointments appointment.AppointmentRepository
	txScope      promotionapp.TransactionScope
	applier      *PersonnelChangeApplier
	publisher    shared.EventPublisher
	batchSize    int
	location     *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

// NewAppointmentSweeper creates a new AppointmentSweeper
func NewAppointmentSweeper(
	appointments appointment.AppointmentRepository,
	txScope promotionapp.TransactionScope,
	applier *PersonnelChangeApplier,
	config BridgeConfig,
	logger *zap.Logger,
) *AppointmentSweeper {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentSweeper{
		appointments: appointments,
		txScope:      txScope,
		applier:      applier,
		batchSize:    DefaultSweepBatchSize,
		location:     loc,
		now:          time.Now,
		logger:       logger,
	}
}

// SetEventPublisher sets the publisher for events raised by applied appointments
func (s *AppointmentSweeper) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the time source
func (s *AppointmentSweeper) SetClock(now func() time.Time) {
	s.now = now
}

// SetBatchSize overrides how many appointments one query loads
func (s *AppointmentSweeper) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// SweepDue applies every pending appointment effective on or before today.
// Due appointments are loaded batchSize at a time until a batch comes back
// short, or until a batch settles nothing because its failures could not be
// recorded either.
func (s *AppointmentSweeper) SweepDue(ctx context.Context) (*SweepResult, error) {
	now := s.now().In(s.location)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	result := &SweepResult{}
	for {
		due, err := s.appointments.FindDue(ctx, today, s.batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to load due appointments: %w", err)
		}

		settled := 0
		for _, a := range due {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			result.Due++
			if err := s.applyOne(ctx, a, now); err != nil {
				result.Failed++
				result.Failures = append(result.Failures, SweepFailure{
					AppointmentID:  a.ID,
					EmployeeNumber: a.EmployeeNumber,
					Reason:         err.Error(),
				})
				if s.markFailed(ctx, a.ID, err, now) {
					settled++
				}
				continue
			}
			result.Completed++
			settled++
		}

		if len(due) < s.batchSize {
			break
		}
		if settled == 0 {
			s.logger.Error("Appointment sweep stopped with unsettled appointments",
				zap.Time("today", today),
				zap.Int("batch_size", s.batchSize))
			break
		}
	}

	s.logger.Info("Appointment sweep finished",
		zap.Time("today", today),
		zap.Int("due", result.Due),
		zap.Int("completed", result.Completed),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *AppointmentSweeper) applyOne(ctx context.Context, a *appointment.Appointment, now time.Time) error {
	payload, err := appointment.ParsePayload([]byte(a.Payload))
	if err != nil {
		return err
	}

	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos promotionapp.TransactionalRepositories) error {
		employee, err := s.applier.ResolveEmployee(ctx, repos, a.EmployeeNumber, payload)
		if err != nil {
			return err
		}
		events, err = s.applier.Apply(ctx, repos, employee, payload, SystemActorID)
		if err != nil {
			return err
		}

		if err := a.Complete(now); err != nil {
			return err
		}
		return repos.AppointmentRepo().Update(ctx, a)
	})
	if err != nil {
		return err
	}

	if s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish promotion events",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err))
		}
	}
	return nil
}

// markFailed records the failure on a fresh copy of the appointment. If another
// process already completed it, the failure is only logged. It reports whether
// the appointment left the pending state.
func (s *AppointmentSweeper) markFailed(ctx context.Context, id uuid.UUID, cause error, now time.Time) bool {
	s.logger.Warn("Appointment could not be applied",
		zap.String("appointment_id", id.String()),
		zap.Error(cause))

	err := s.txScope.Execute(ctx, func(repos promotionapp.TransactionalRepositories) error {
		a, err := repos.AppointmentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != appointment.StatusPending {
			return nil
		}
		if err := a.Fail(cause.Error(), now); err != nil {
			return err
		}
		return repos.AppointmentRepo().Update(ctx, a)
	})
	if err != nil {
		s.logger.Error("Failed to record appointment failure",
			zap.String("appointment_id", id.String()),
			zap.Error(err))
		return false
	}
	return true
}
