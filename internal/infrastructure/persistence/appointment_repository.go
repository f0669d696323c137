package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/appointment"
	"github.com/hrcore/promotion/internal/domain/shared"
	"github.com/hrcore/promotion/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAppointmentRepository implements appointment.AppointmentRepository using GORM
type GormAppointmentRepository struct {
	db *gorm.DB
}

// NewGormAppointmentRepository creates a new GormAppointmentRepository
func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// Create saves a new appointment
func (r *GormAppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(models.AppointmentModelFromDomain(a)).Error
}

// FindByID finds an appointment by ID
func (r *GormAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var model models.AppointmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySourceDocID finds the appointment recorded for an approval document
func (r *GormAppointmentRepository) FindBySourceDocID(ctx context.Context, docID string) (*appointment.Appointment, error) {
	var model models.AppointmentModel
	if err := r.db.WithContext(ctx).First(&model, "source_doc_id = ?", docID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDue returns pending appointments effective on or before the calendar day
// of today, oldest effective date first
func (r *GormAppointmentRepository) FindDue(ctx context.Context, today time.Time, limit int) ([]*appointment.Appointment, error) {
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	query := r.db.WithContext(ctx).
		Where("status = ? AND effective_date <= ?", appointment.StatusPending, day).
		Order("effective_date ASC, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.AppointmentModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*appointment.Appointment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// Update persists a processed appointment. Only a row that is still pending
// is written, so two sweeps cannot both settle the same appointment.
func (r *GormAppointmentRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	result := r.db.WithContext(ctx).
		Model(&models.AppointmentModel{}).
		Where("id = ? AND status = ?", a.ID, appointment.StatusPending).
		Updates(map[string]interface{}{
			"status":         a.Status,
			"failure_reason": a.FailureReason,
			"processed_at":   a.ProcessedAt,
			"version":        a.Version,
			"updated_at":     a.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AppointmentModel{}).
		Where("id = ?", a.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return shared.ErrConcurrencyConflict
}

// Ensure GormAppointmentRepository implements AppointmentRepository
var _ appointment.AppointmentRepository = (*GormAppointmentRepository)(nil)
