package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	promotionapp "github.com/hrcore/promotion/internal/application/promotion"
	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/domain/shared"
	"go.uber.org/zap"
)

// PersonnelChangeApplier applies an approved personnel appointment payload:
// department and job title first, then the grade branch selected by promotionType.
// It runs inside the caller's transaction, so the live signal and the daily sweep
// share one code path and one set of state preconditions.
type PersonnelChangeApplier struct {
	review   *promotionapp.ReviewService
	executor *promotionapp.GradeChangeExecutor
	logger   *zap.Logger
}

// NewPersonnelChangeApplier creates a new PersonnelChangeApplier
func NewPersonnelChangeApplier(
	review *promotionapp.ReviewService,
	executor *promotionapp.GradeChangeExecutor,
	logger *zap.Logger,
) *PersonnelChangeApplier {
	return &PersonnelChangeApplier{
		review:   review,
		executor: executor,
		logger:   logger,
	}
}

// ResolveEmployee finds the subject of a payload. An explicit employee number
// wins, then the payload's employeeId, then the employee of its candidate.
func (a *PersonnelChangeApplier) ResolveEmployee(ctx context.Context, repos promotionapp.TransactionalRepositories, employeeNumber string, p *appointment.Payload) (*organization.Employee, error) {
	directory := repos.Directory()
	switch {
	case employeeNumber != "":
		return directory.FindEmployeeByNumber(ctx, employeeNumber)
	case p.EmployeeID != nil:
		return directory.FindEmployee(ctx, *p.EmployeeID)
	case p.CandidateID != nil:
		candidate, err := repos.CandidateRepo().FindByID(ctx, *p.CandidateID)
		if err != nil {
			return nil, err
		}
		return directory.FindEmployee(ctx, candidate.EmployeeID)
	}
	return nil, shared.NewDomainError(appointment.ErrInvalidPayload.Code, "Payload does not identify an employee")
}

// Apply performs the personnel change for employee. The returned events must be
// published after the transaction commits.
func (a *PersonnelChangeApplier) Apply(ctx context.Context, repos promotionapp.TransactionalRepositories, employee *organization.Employee, p *appointment.Payload, actorID uuid.UUID) ([]shared.DomainEvent, error) {
	if assignment := p.Assignment(); !assignment.IsEmpty() {
		if err := repos.EmployeeWriter().UpdateAssignment(ctx, employee.ID, assignment); err != nil {
			return nil, fmt.Errorf("failed to update assignment: %w", err)
		}
	}

	switch p.PromotionType {
	case appointment.PromotionTypeSpecial:
		ladder, err := repos.Directory().GradeLadder(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load grade ladder: %w", err)
		}
		grade, ok := ladder.FindByName(p.TargetGradeName)
		if !ok {
			return nil, shared.NewDomainError(organization.ErrGradeNotFound.Code,
				fmt.Sprintf("Grade %q not found", p.TargetGradeName))
		}
		promoted, err := a.executor.Apply(ctx, repos, promotionapp.GradeChange{
			EmployeeID:    employee.ID,
			TargetGradeID: grade.ID,
			ChangedBy:     actorID,
			Direct:        true,
		})
		if err != nil {
			return nil, err
		}
		return []shared.DomainEvent{promoted}, nil

	case appointment.PromotionTypeRegular:
		candidate, err := repos.CandidateRepo().FindByID(ctx, *p.CandidateID)
		if err != nil {
			return nil, err
		}
		if candidate.EmployeeID != employee.ID {
			return nil, shared.NewDomainError(appointment.ErrInvalidPayload.Code,
				"Candidate does not belong to the appointed employee")
		}
		_, events, err := a.review.ConfirmFinalApprovalTx(ctx, repos, promotionapp.FinalApprovalRequest{
			CandidateID: candidate.ID,
			Passed:      true,
			ActorID:     actorID,
		})
		return events, err
	}

	return nil, nil
}
