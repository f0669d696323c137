package promotion

import (
	"context"

	"github.com/google/uuid"
)

// PlanRepository defines the interface for plan persistence
type PlanRepository interface {
	// Create saves a new plan together with its details
	Create(ctx context.Context, plan *Plan) error

	// FindByID finds a plan with its details
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// FindDetail finds a detail by ID
	FindDetail(ctx context.Context, id uuid.UUID) (*Detail, error)

	// LockDetail loads a detail and holds a row lock on it until the surrounding
	// transaction ends. Quota decisions for the detail must be made under this lock.
	LockDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
}

// CandidateRepository defines the interface for candidate persistence
type CandidateRepository interface {
	// CreateBatch inserts new candidates
	CreateBatch(ctx context.Context, candidates []*Candidate) error

	// FindByID finds a candidate by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Candidate, error)

	// FindByDetail lists candidates of a detail ordered by evaluation point snapshot descending
	FindByDetail(ctx context.Context, detailID uuid.UUID, page, pageSize int) ([]*Candidate, int64, error)

	// FindEmployeeIDsByDetail returns the employees already registered for a detail
	FindEmployeeIDsByDetail(ctx context.Context, detailID uuid.UUID) (map[uuid.UUID]bool, error)

	// CountByDetailAndStatus counts candidates of a detail in any of the given statuses
	CountByDetailAndStatus(ctx context.Context, detailID uuid.UUID, statuses ...CandidateStatus) (int64, error)

	// Update persists a modified candidate. The write only succeeds if the stored
	// version is the one the candidate was loaded with; otherwise
	// shared.ErrConcurrencyConflict is returned and nothing is written.
	Update(ctx context.Context, candidate *Candidate) error
}
