package promotion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"go.uber.org/zap"
)

// CandidateDiscoveryEngine registers every eligible employee of a detail's
// department subtree as a waiting candidate.
type CandidateDiscoveryEngine struct {
	txScope TransactionScope
	logger  *zap.Logger
}

// NewCandidateDiscoveryEngine creates a new CandidateDiscoveryEngine
func NewCandidateDiscoveryEngine(txScope TransactionScope, logger *zap.Logger) *CandidateDiscoveryEngine {
	return &CandidateDiscoveryEngine{
		txScope: txScope,
		logger:  logger,
	}
}

// DiscoverCandidates runs discovery for one detail in its own transaction
func (e *CandidateDiscoveryEngine) DiscoverCandidates(ctx context.Context, detailID uuid.UUID) (*DiscoveryResult, error) {
	var result *DiscoveryResult
	err := e.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		detail, err := repos.PlanRepo().FindDetail(ctx, detailID)
		if err != nil {
			return err
		}
		result, err = e.Discover(ctx, repos, *detail)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Discover resolves the source grade and department scope of detail and inserts
// a WAITING candidate for each matching employee not yet registered. An empty
// match set is not an error.
func (e *CandidateDiscoveryEngine) Discover(ctx context.Context, repos TransactionalRepositories, detail promotion.Detail) (*DiscoveryResult, error) {
	directory := repos.Directory()

	ladder, err := directory.GradeLadder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load grade ladder: %w", err)
	}
	source, err := ladder.PromotionSource(detail.TargetGradeID)
	if err != nil {
		return nil, err
	}

	scope, err := organization.ExpandDepartment(ctx, directory, detail.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to expand department: %w", err)
	}

	employees, err := directory.FindEligibleEmployees(ctx, organization.EligibilityCriteria{
		GradeID:            source.Source.ID,
		DepartmentIDs:      scope,
		MinEvaluationPoint: source.RequiredPoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find eligible employees: %w", err)
	}

	existing, err := repos.CandidateRepo().FindEmployeeIDsByDetail(ctx, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load registered candidates: %w", err)
	}
	if existing == nil {
		existing = make(map[uuid.UUID]bool)
	}

	result := &DiscoveryResult{
		DetailID:    detail.ID,
		SourceGrade: source.Source.Name,
		TargetGrade: source.Target.Name,
	}
	candidates := make([]*promotion.Candidate, 0, len(employees))
	for _, emp := range employees {
		if existing[emp.ID] {
			result.Skipped++
			continue
		}
		existing[emp.ID] = true
		candidates = append(candidates, promotion.NewCandidate(detail.ID, emp.ID, emp.EvaluationPoint))
	}

	if len(candidates) > 0 {
		if err := repos.CandidateRepo().CreateBatch(ctx, candidates); err != nil {
			return nil, fmt.Errorf("failed to register candidates: %w", err)
		}
	}
	for _, c := range candidates {
		result.CandidateIDs = append(result.CandidateIDs, c.ID)
	}
	result.Registered = len(candidates)

	e.logger.Info("Promotion candidates discovered",
		zap.String("detail_id", detail.ID.String()),
		zap.String("source_grade", source.Source.Name),
		zap.String("target_grade", source.Target.Name),
		zap.Int("departments", len(scope)),
		zap.Int("registered", result.Registered),
		zap.Int("skipped", result.Skipped))

	return result, nil
}
