package promotion

import (
	"context"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// CandidateQueryService serves the read side of candidates
type CandidateQueryService struct {
	planRepo promotion.PlanRepository
	candRepo promotion.CandidateRepository
}

// NewCandidateQueryService creates a new CandidateQueryService
func NewCandidateQueryService(planRepo promotion.PlanRepository, candRepo promotion.CandidateRepository) *CandidateQueryService {
	return &CandidateQueryService{
		planRepo: planRepo,
		candRepo: candRepo,
	}
}

// ListByDetail lists the candidates of a detail, highest evaluation point first
func (s *CandidateQueryService) ListByDetail(ctx context.Context, detailID uuid.UUID, page, pageSize int) (*shared.Paginated[CandidateResponse], error) {
	if _, err := s.planRepo.FindDetail(ctx, detailID); err != nil {
		return nil, err
	}

	page, pageSize = shared.NormalizePage(page, pageSize)
	candidates, total, err := s.candRepo.FindByDetail(ctx, detailID, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]CandidateResponse, len(candidates))
	for i, c := range candidates {
		items[i] = ToCandidateResponse(c)
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// GetCandidate retrieves a single candidate
func (s *CandidateQueryService) GetCandidate(ctx context.Context, candidateID uuid.UUID) (*CandidateResponse, error) {
	c, err := s.candRepo.FindByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	response := ToCandidateResponse(c)
	return &response, nil
}
