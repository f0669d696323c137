package promotion

import (
	"context"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
	"go.uber.org/zap"
)

// ReviewService drives candidates through the two review stages. Passing
// decisions are taken while holding the row lock of the candidate's detail, so
// concurrent reviewers can never push a detail over its quota.
type ReviewService struct {
	txScope  TransactionScope
	planRepo promotion.PlanRepository
	candRepo promotion.CandidateRepository
	executor *GradeChangeExecutor
	events   eventPublishing
	logger   *zap.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	txScope TransactionScope,
	planRepo promotion.PlanRepository,
	candRepo promotion.CandidateRepository,
	executor *GradeChangeExecutor,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		txScope:  txScope,
		planRepo: planRepo,
		candRepo: candRepo,
		executor: executor,
		events:   eventPublishing{logger: logger},
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReviewService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events.publisher = publisher
}

// ReviewCandidate performs the first-stage review of a waiting candidate.
// A pass is refused with QUOTA_EXCEEDED once the detail's quota is taken.
func (s *ReviewService) ReviewCandidate(ctx context.Context, req ReviewRequest) (*CandidateResponse, error) {
	var (
		response CandidateResponse
		events   []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		candidate, err := repos.CandidateRepo().FindByID(ctx, req.CandidateID)
		if err != nil {
			return err
		}
		detail, err := repos.PlanRepo().LockDetail(ctx, candidate.DetailID)
		if err != nil {
			return err
		}

		var passed int64
		if req.Passed {
			passed, err = repos.CandidateRepo().CountByDetailAndStatus(ctx, detail.ID, promotion.QuotaStatuses...)
			if err != nil {
				return err
			}
		}
		if err := candidate.Review(req.Passed, req.Comment, *detail, passed); err != nil {
			return err
		}
		if err := repos.CandidateRepo().Update(ctx, candidate); err != nil {
			return err
		}

		response = ToCandidateResponse(candidate)
		events = drainEvents(candidate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Candidate reviewed",
		zap.String("candidate_id", req.CandidateID.String()),
		zap.String("status", response.Status))
	s.events.publish(ctx, events)
	return &response, nil
}

// ConfirmFinalApproval performs the final decision on a review-passed candidate.
// Approval promotes the employee into the detail's target grade in the same transaction.
func (s *ReviewService) ConfirmFinalApproval(ctx context.Context, req FinalApprovalRequest) (*CandidateResponse, error) {
	var (
		response *CandidateResponse
		events   []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		response, events, err = s.ConfirmFinalApprovalTx(ctx, repos, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, events)
	return response, nil
}

// ConfirmFinalApprovalTx is ConfirmFinalApproval inside the caller's transaction.
// The returned events must be published by the caller after commit.
func (s *ReviewService) ConfirmFinalApprovalTx(ctx context.Context, repos TransactionalRepositories, req FinalApprovalRequest) (*CandidateResponse, []shared.DomainEvent, error) {
	candidate, err := repos.CandidateRepo().FindByID(ctx, req.CandidateID)
	if err != nil {
		return nil, nil, err
	}
	if err := candidate.ConfirmFinal(req.Passed, req.Comment); err != nil {
		return nil, nil, err
	}
	if err := repos.CandidateRepo().Update(ctx, candidate); err != nil {
		return nil, nil, err
	}
	events := drainEvents(candidate)

	if req.Passed {
		detail, err := repos.PlanRepo().FindDetail(ctx, candidate.DetailID)
		if err != nil {
			return nil, nil, err
		}
		promoted, err := s.executor.Apply(ctx, repos, GradeChange{
			EmployeeID:    candidate.EmployeeID,
			TargetGradeID: detail.TargetGradeID,
			ChangedBy:     req.ActorID,
		})
		if err != nil {
			return nil, nil, err
		}
		events = append(events, promoted)
	}

	s.logger.Info("Candidate finalized",
		zap.String("candidate_id", candidate.ID.String()),
		zap.String("status", candidate.Status.String()))

	response := ToCandidateResponse(candidate)
	return &response, events, nil
}

// PassedCount reports how much of a detail's quota is taken
func (s *ReviewService) PassedCount(ctx context.Context, detailID uuid.UUID) (*QuotaStatusResponse, error) {
	detail, err := s.planRepo.FindDetail(ctx, detailID)
	if err != nil {
		return nil, err
	}
	passed, err := s.candRepo.CountByDetailAndStatus(ctx, detailID, promotion.QuotaStatuses...)
	if err != nil {
		return nil, err
	}

	remaining := int64(detail.QuotaCount) - passed
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatusResponse{
		DetailID:  detailID,
		Quota:     detail.QuotaCount,
		Passed:    passed,
		Remaining: remaining,
	}, nil
}
