package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/shared"
	"go.uber.org/zap"
)

// BridgeConfig holds settings shared by the approval signal handlers
type BridgeConfig struct {
	// FormKey is the approval form whose documents are personnel appointments
	FormKey string
	// Location is the business time zone used to decide whether an effective date has arrived
	Location *time.Location
}

// DefaultBridgeConfig returns the default bridge configuration
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		FormKey:  appointment.FormKeyPersonnelAppointment,
		Location: time.Local,
	}
}

// ApprovalCompletedHandler turns approved personnel appointment documents into
// grade, department and job title changes. Documents effective in the future
// are stored as pending appointments for the daily sweep.
type ApprovalCompletedHandler struct {
	txScope   promotionapp.TransactionScope
	applier   *PersonnelChangeApplier
	publisher shared.EventPublisher
	config    BridgeConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewApprovalCompletedHandler creates a new ApprovalCompletedHandler
func NewApprovalCompletedHandler(
	txScope promotionapp.TransactionScope,
	applier *PersonnelChangeApplier,
	config BridgeConfig,
	logger *zap.Logger,
) *ApprovalCompletedHandler {
	if config.Location == nil {
		config.Location = time.Local
	}
	return &ApprovalCompletedHandler{
		txScope: txScope,
		applier: applier,
		config:  config,
		now:     time.Now,
		logger:  logger,
	}
}

// SetEventPublisher sets the publisher for events raised while applying a document
func (h *ApprovalCompletedHandler) SetEventPublisher(publisher shared.EventPublisher) {
	h.publisher = publisher
}

// SetClock overrides the time source
func (h *ApprovalCompletedHandler) SetClock(now func() time.Time) {
	h.now = now
}

// EventTypes returns the event types this handler is interested in
func (h *ApprovalCompletedHandler) EventTypes() []string {
	return []string{EventTypeApprovalCompleted}
}

// Handle processes an ApprovalCompletedEvent. Failures are returned so the
// delivering infrastructure can redeliver.
func (h *ApprovalCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*ApprovalCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			EventTypeApprovalCompleted, event.EventType())
	}
	if completed.FormKey != h.config.FormKey {
		h.logger.Debug("ignoring approval of unrelated form",
			zap.String("doc_id", completed.DocID),
			zap.String("form_key", completed.FormKey))
		return nil
	}

	payload, err := appointment.ParsePayload([]byte(completed.PayloadJSON))
	if err != nil {
		return err
	}
	effective, err := payload.EffectiveOn(h.config.Location)
	if err != nil {
		return err
	}

	today := h.now().In(h.config.Location)
	var (
		events []shared.DomainEvent
		replay bool
	)
	err = h.txScope.Execute(ctx, func(repos promotionapp.TransactionalRepositories) error {
		if completed.DocID != "" {
			_, err := repos.AppointmentRepo().FindBySourceDocID(ctx, completed.DocID)
			if err == nil {
				replay = true
				return nil
			}
			if !errors.Is(err, appointment.ErrAppointmentNotFound) {
				return err
			}
		}

		employee, err := h.applier.ResolveEmployee(ctx, repos, "", payload)
		if err != nil {
			return err
		}

		if !effective.IsZero() && effective.After(today) {
			scheduled, err := appointment.NewAppointment(employee.EmployeeNumber, completed.PayloadJSON, effective)
			if err != nil {
				return err
			}
			scheduled.SourceDocID = completed.DocID
			h.logger.Info("Personnel appointment scheduled",
				zap.String("doc_id", completed.DocID),
				zap.String("appointment_id", scheduled.ID.String()),
				zap.String("employee_number", employee.EmployeeNumber),
				zap.Time("effective_date", scheduled.EffectiveDate))
			return repos.AppointmentRepo().Create(ctx, scheduled)
		}

		events, err = h.applier.Apply(ctx, repos, employee, payload, completed.SubmitterID)
		if err != nil {
			return err
		}
		if completed.DocID == "" {
			return nil
		}
		return h.recordApplied(ctx, repos, employee.EmployeeNumber, completed, effective, today)
	})
	if err != nil {
		h.logger.Error("failed to apply approved personnel appointment",
			zap.String("doc_id", completed.DocID),
			zap.String("promotion_type", string(payload.PromotionType)),
			zap.Error(err))
		return err
	}

	if replay {
		h.logger.Info("Approval document already applied",
			zap.String("doc_id", completed.DocID))
		return nil
	}

	h.logger.Info("Personnel appointment applied",
		zap.String("doc_id", completed.DocID),
		zap.String("promotion_type", string(payload.PromotionType)))
	h.publish(ctx, events)
	return nil
}

// recordApplied stores the document as a completed appointment. The unique
// document key makes a concurrent replay fail instead of applying twice.
func (h *ApprovalCompletedHandler) recordApplied(ctx context.Context, repos promotionapp.TransactionalRepositories, employeeNumber string, completed *ApprovalCompletedEvent, effective, today time.Time) error {
	appliedOn := effective
	if appliedOn.IsZero() {
		appliedOn = today
	}
	record, err := appointment.NewAppointment(employeeNumber, completed.PayloadJSON, appliedOn)
	if err != nil {
		return err
	}
	record.SourceDocID = completed.DocID
	if err := record.Complete(today); err != nil {
		return err
	}
	return repos.AppointmentRepo().Create(ctx, record)
}

func (h *ApprovalCompletedHandler) publish(ctx context.Context, events []shared.DomainEvent) {
	if h.publisher == nil || len(events) == 0 {
		return
	}
	if err := h.publisher.Publish(ctx, events...); err != nil {
		h.logger.Warn("Failed to publish promotion events", zap.Error(err))
	}
}

// ApprovalRejectedHandler finalizes regular promotion candidates whose
// appointment document was rejected. Special promotions need no action.
type ApprovalRejectedHandler struct {
	review  *promotionapp.ReviewService
	formKey string
	logger  *zap.Logger
}

// NewApprovalRejectedHandler creates a new ApprovalRejectedHandler
func NewApprovalRejectedHandler(review *promotionapp.ReviewService, config BridgeConfig, logger *zap.Logger) *ApprovalRejectedHandler {
	return &ApprovalRejectedHandler{
		review:  review,
		formKey: config.FormKey,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ApprovalRejectedHandler) EventTypes() []string {
	return []string{EventTypeApprovalRejected}
}

// Handle processes an ApprovalRejectedEvent
func (h *ApprovalRejectedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	rejected, ok := event.(*ApprovalRejectedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			EventTypeApprovalRejected, event.EventType())
	}
	if rejected.FormKey != h.formKey {
		return nil
	}

	payload, err := appointment.ParsePayload([]byte(rejected.PayloadJSON))
	if err != nil {
		return err
	}
	if payload.PromotionType != appointment.PromotionTypeRegular {
		h.logger.Debug("rejected appointment needs no promotion action",
			zap.String("doc_id", rejected.DocID),
			zap.String("promotion_type", string(payload.PromotionType)))
		return nil
	}

	_, err = h.review.ConfirmFinalApproval(ctx, promotionapp.FinalApprovalRequest{
		CandidateID: *payload.CandidateID,
		Passed:      false,
		Comment:     rejected.Comment,
		ActorID:     rejected.SubmitterID,
	})
	if err != nil {
		h.logger.Error("failed to reject promotion candidate",
			zap.String("doc_id", rejected.DocID),
			zap.String("candidate_id", payload.CandidateID.String()),
			zap.Error(err))
		return err
	}

	h.logger.Info("Promotion candidate rejected by approval workflow",
		zap.String("doc_id", rejected.DocID),
		zap.String("candidate_id", payload.CandidateID.String()))
	return nil
}
