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

// PlanService registers promotion plans and seeds their candidates
type PlanService struct {
	planRepo  promotion.PlanRepository
	txScope   TransactionScope
	discovery *CandidateDiscoveryEngine
	logger    *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(
	planRepo promotion.PlanRepository,
	txScope TransactionScope,
	discovery *CandidateDiscoveryEngine,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		planRepo:  planRepo,
		txScope:   txScope,
		discovery: discovery,
		logger:    logger,
	}
}

// RegisterPlan validates and persists a plan with its details in one
// transaction, then runs discovery for every detail. A detail whose discovery
// fails is reported in the result and does not affect the others or the plan.
func (s *PlanService) RegisterPlan(ctx context.Context, req RegisterPlanRequest) (*RegisterPlanResult, error) {
	plan, err := promotion.NewPlan(req.Name, req.Content, req.NominationDeadline, req.AppointmentDate)
	if err != nil {
		return nil, err
	}
	if len(req.Details) == 0 {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "A plan needs at least one detail")
	}
	for _, in := range req.Details {
		if _, err := plan.AddDetail(in.DepartmentID, in.TargetGradeID, in.QuotaCount); err != nil {
			return nil, err
		}
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		ladder, err := repos.Directory().GradeLadder(ctx)
		if err != nil {
			return fmt.Errorf("failed to load grade ladder: %w", err)
		}
		for _, d := range plan.Details {
			if _, err := ladder.PromotionSource(d.TargetGradeID); err != nil {
				return err
			}
			exists, err := repos.Directory().DepartmentExists(ctx, d.DepartmentID)
			if err != nil {
				return fmt.Errorf("failed to check department: %w", err)
			}
			if !exists {
				return organization.ErrDepartmentNotFound
			}
		}
		return repos.PlanRepo().Create(ctx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Promotion plan registered",
		zap.String("plan_id", plan.ID.String()),
		zap.String("name", plan.Name),
		zap.Int("details", len(plan.Details)))

	result := &RegisterPlanResult{
		Plan:      ToPlanResponse(plan),
		Discovery: make([]DiscoveryResult, 0, len(plan.Details)),
	}
	for _, d := range plan.Details {
		discovered, err := s.discovery.DiscoverCandidates(ctx, d.ID)
		if err != nil {
			s.logger.Warn("Candidate discovery failed",
				zap.String("plan_id", plan.ID.String()),
				zap.String("detail_id", d.ID.String()),
				zap.Error(err))
			result.Discovery = append(result.Discovery, DiscoveryResult{DetailID: d.ID, Error: err.Error()})
			continue
		}
		result.Discovery = append(result.Discovery, *discovered)
	}

	return result, nil
}

// GetPlan retrieves a plan with its details
func (s *PlanService) GetPlan(ctx context.Context, planID uuid.UUID) (*PlanResponse, error) {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	response := ToPlanResponse(plan)
	return &response, nil
}
