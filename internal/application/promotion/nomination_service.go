package promotion

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"go.uber.org/zap"
)

// NominationService records and withdraws peer nominations. Plan deadlines
// are compared as calendar days in the business time zone.
type NominationService struct {
	txScope  TransactionScope
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewNominationService creates a new NominationService. A nil location
// means the process's local zone.
func NewNominationService(txScope TransactionScope, location *time.Location, logger *zap.Logger) *NominationService {
	if location == nil {
		location = time.Local
	}
	return &NominationService{
		txScope:  txScope,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the time source used for deadline checks
func (s *NominationService) SetClock(now func() time.Time) {
	s.now = now
}

// Nominate records nominatorID's nomination of a candidate, replacing any earlier one
func (s *NominationService) Nominate(ctx context.Context, req NominateRequest) (*CandidateResponse, error) {
	var response CandidateResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		candidate, err := s.loadOpenCandidate(ctx, repos, req.CandidateID)
		if err != nil {
			return err
		}
		if err := candidate.Nominate(req.NominatorID, req.Reason); err != nil {
			return err
		}
		if err := repos.CandidateRepo().Update(ctx, candidate); err != nil {
			return err
		}
		response = ToCandidateResponse(candidate)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Candidate nominated",
		zap.String("candidate_id", req.CandidateID.String()),
		zap.String("nominator_id", req.NominatorID.String()))
	return &response, nil
}

// CancelNomination withdraws a nomination. Only the stored nominator may do so.
func (s *NominationService) CancelNomination(ctx context.Context, candidateID, requesterID uuid.UUID) error {
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		candidate, err := s.loadOpenCandidate(ctx, repos, candidateID)
		if err != nil {
			return err
		}
		if err := candidate.CancelNomination(requesterID); err != nil {
			return err
		}
		return repos.CandidateRepo().Update(ctx, candidate)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Nomination cancelled",
		zap.String("candidate_id", candidateID.String()),
		zap.String("requester_id", requesterID.String()))
	return nil
}

// loadOpenCandidate loads a candidate and checks that its plan still accepts nominations
func (s *NominationService) loadOpenCandidate(ctx context.Context, repos TransactionalRepositories, candidateID uuid.UUID) (*promotion.Candidate, error) {
	candidate, err := repos.CandidateRepo().FindByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	detail, err := repos.PlanRepo().FindDetail(ctx, candidate.DetailID)
	if err != nil {
		return nil, err
	}
	plan, err := repos.PlanRepo().FindByID(ctx, detail.PlanID)
	if err != nil {
		return nil, err
	}
	if err := plan.CheckNominationOpen(s.now().In(s.location)); err != nil {
		return nil, err
	}
	return candidate, nil
}
