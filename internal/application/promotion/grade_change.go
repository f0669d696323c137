package promotion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
	"go.uber.org/zap"
)

// GradeChange is a single grade mutation of an employee
type GradeChange struct {
	EmployeeID    uuid.UUID
	TargetGradeID uuid.UUID
	ChangedBy     uuid.UUID
	Direct        bool // off-cycle promotion without a candidate
}

// GradeChangeExecutor sets an employee's current grade and appends the audit
// history row. It performs no eligibility checks; callers decide whether the
// change is allowed and provide the transaction.
type GradeChangeExecutor struct {
	logger *zap.Logger
}

// NewGradeChangeExecutor creates a new GradeChangeExecutor
func NewGradeChangeExecutor(logger *zap.Logger) *GradeChangeExecutor {
	return &GradeChangeExecutor{logger: logger}
}

// Apply performs the change using the repositories of the caller's transaction
func (e *GradeChangeExecutor) Apply(ctx context.Context, repos TransactionalRepositories, change GradeChange) (*promotion.EmployeePromotedEvent, error) {
	ladder, err := repos.Directory().GradeLadder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load grade ladder: %w", err)
	}
	grade, ok := ladder.Find(change.TargetGradeID)
	if !ok {
		return nil, organization.ErrGradeNotFound
	}

	if err := repos.EmployeeWriter().UpdateGrade(ctx, change.EmployeeID, grade.ID); err != nil {
		return nil, err
	}
	history := organization.NewPromotionHistory(change.EmployeeID, change.ChangedBy, grade.Name)
	if err := repos.EmployeeWriter().AppendGradeHistory(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to append grade history: %w", err)
	}

	e.logger.Info("Employee grade changed",
		zap.String("employee_id", change.EmployeeID.String()),
		zap.String("grade", grade.Name),
		zap.String("changed_by", change.ChangedBy.String()),
		zap.Bool("direct", change.Direct))

	return promotion.NewEmployeePromotedEvent(change.EmployeeID, grade.ID, grade.Name, change.ChangedBy, change.Direct), nil
}

// GradeChangeService exposes the special (off-cycle) promotion path
type GradeChangeService struct {
	txScope  TransactionScope
	executor *GradeChangeExecutor
	events   eventPublishing
	logger   *zap.Logger
}

// NewGradeChangeService creates a new GradeChangeService
func NewGradeChangeService(txScope TransactionScope, executor *GradeChangeExecutor, logger *zap.Logger) *GradeChangeService {
	return &GradeChangeService{
		txScope:  txScope,
		executor: executor,
		events:   eventPublishing{logger: logger},
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *GradeChangeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events.publisher = publisher
}

// DirectPromote changes an employee's grade without a candidate
func (s *GradeChangeService) DirectPromote(ctx context.Context, req DirectPromoteRequest) (*GradeChangeResponse, error) {
	var event *promotion.EmployeePromotedEvent
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Directory().FindEmployee(ctx, req.EmployeeID); err != nil {
			return err
		}
		var err error
		event, err = s.executor.Apply(ctx, repos, GradeChange{
			EmployeeID:    req.EmployeeID,
			TargetGradeID: req.TargetGradeID,
			ChangedBy:     req.ActorID,
			Direct:        true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, []shared.DomainEvent{event})
	return &GradeChangeResponse{
		EmployeeID: req.EmployeeID,
		GradeID:    event.GradeID,
		GradeName:  event.GradeName,
	}, nil
}
