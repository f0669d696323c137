package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/domain/shared"
	"github.com/hrcore/promotion/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const candidateBatchSize = 200

// GormCandidateRepository implements promotion.CandidateRepository using GORM
type GormCandidateRepository struct {
	db *gorm.DB
}

// NewGormCandidateRepository creates a new GormCandidateRepository
func NewGormCandidateRepository(db *gorm.DB) *GormCandidateRepository {
	return &GormCandidateRepository{db: db}
}

// CreateBatch inserts new candidates
func (r *GormCandidateRepository) CreateBatch(ctx context.Context, candidates []*promotion.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	rows := make([]*models.CandidateModel, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, models.CandidateModelFromDomain(c))
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, candidateBatchSize).Error
}

// FindByID finds a candidate by ID
func (r *GormCandidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.Candidate, error) {
	var model models.CandidateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promotion.ErrCandidateNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDetail lists candidates of a detail ordered by evaluation point snapshot descending
func (r *GormCandidateRepository) FindByDetail(ctx context.Context, detailID uuid.UUID, page, pageSize int) ([]*promotion.Candidate, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CandidateModel{}).
		Where("detail_id = ?", detailID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CandidateModel
	if err := query.
		Order("evaluation_point_snapshot DESC, created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	candidates := make([]*promotion.Candidate, 0, len(rows))
	for i := range rows {
		candidates = append(candidates, rows[i].ToDomain())
	}
	return candidates, total, nil
}

// FindEmployeeIDsByDetail returns the employees already registered for a detail
func (r *GormCandidateRepository) FindEmployeeIDsByDetail(ctx context.Context, detailID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.CandidateModel{}).
		Where("detail_id = ?", detailID).
		Pluck("employee_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// CountByDetailAndStatus counts candidates of a detail in any of the given statuses
func (r *GormCandidateRepository) CountByDetailAndStatus(ctx context.Context, detailID uuid.UUID, statuses ...promotion.CandidateStatus) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CandidateModel{}).
		Where("detail_id = ? AND status IN ?", detailID, statuses).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update writes the mutable candidate fields if the stored version is still
// the one the candidate was loaded with.
func (r *GormCandidateRepository) Update(ctx context.Context, candidate *promotion.Candidate) error {
	result := r.db.WithContext(ctx).
		Model(&models.CandidateModel{}).
		Where("id = ? AND version = ?", candidate.ID, candidate.Version-1).
		Updates(map[string]interface{}{
			"nominator_id":      candidate.NominatorID,
			"nomination_reason": candidate.NominationReason,
			"status":            candidate.Status,
			"comment":           candidate.Comment,
			"version":           candidate.Version,
			"updated_at":        candidate.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormCandidateRepository implements CandidateRepository
var _ promotion.CandidateRepository = (*GormCandidateRepository)(nil)
