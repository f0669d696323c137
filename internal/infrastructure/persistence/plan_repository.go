package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/promotion"
	"github.com/hrcore/promotion/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlanRepository implements promotion.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// Create saves a new plan together with its details
func (r *GormPlanRepository) Create(ctx context.Context, plan *promotion.Plan) error {
	model := models.PlanModelFromDomain(plan)
	db := r.db.WithContext(ctx)

	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	if len(model.Details) == 0 {
		return nil
	}
	return db.Create(&model.Details).Error
}

// FindByID finds a plan with its details in the order they were added
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.Plan, error) {
	var model models.PlanModel
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promotion.ErrPlanNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDetail finds a detail by ID
func (r *GormPlanRepository) FindDetail(ctx context.Context, id uuid.UUID) (*promotion.Detail, error) {
	return r.findDetail(r.db.WithContext(ctx), id)
}

// LockDetail loads a detail with SELECT ... FOR UPDATE. The lock is held until
// the surrounding transaction commits or rolls back.
func (r *GormPlanRepository) LockDetail(ctx context.Context, id uuid.UUID) (*promotion.Detail, error) {
	return r.findDetail(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPlanRepository) findDetail(db *gorm.DB, id uuid.UUID) (*promotion.Detail, error) {
	var model models.DetailModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promotion.ErrDetailNotFound
		}
		return nil, err
	}
	detail := model.ToDomain()
	return &detail, nil
}

// Ensure GormPlanRepository implements PlanRepository
var _ promotion.PlanRepository = (*GormPlanRepository)(nil)
