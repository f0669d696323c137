package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDirectoryRepository reads employee, department and grade master data and
// writes the employee fields changed by promotions and appointments.
type GormDirectoryRepository struct {
	db *gorm.DB
}

// NewGormDirectoryRepository creates a new GormDirectoryRepository
func NewGormDirectoryRepository(db *gorm.DB) *GormDirectoryRepository {
	return &GormDirectoryRepository{db: db}
}

// ChildDepartmentIDs returns the direct children of a department ordered by name
func (r *GormDirectoryRepository) ChildDepartmentIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.DepartmentModel{}).
		Where("parent_id = ?", parentID).
		Order("name ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// GradeLadder loads every grade ordered by rank
func (r *GormDirectoryRepository) GradeLadder(ctx context.Context) (*organization.GradeLadder, error) {
	var rows []models.GradeModel
	if err := r.db.WithContext(ctx).Order("grade_rank ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	grades := make([]organization.Grade, 0, len(rows))
	for i := range rows {
		grades = append(grades, rows[i].ToDomain())
	}
	return organization.NewGradeLadder(grades)
}

// DepartmentExists checks whether a department is known
func (r *GormDirectoryRepository) DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DepartmentModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEmployee finds an employee by ID
func (r *GormDirectoryRepository) FindEmployee(ctx context.Context, id uuid.UUID) (*organization.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organization.ErrEmployeeNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindEmployeeByNumber finds an employee by personnel number
func (r *GormDirectoryRepository) FindEmployeeByNumber(ctx context.Context, number string) (*organization.Employee, error) {
	var model models.EmployeeModel
	if err := r.db.WithContext(ctx).First(&model, "employee_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organization.ErrEmployeeNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindEligibleEmployees returns employees of the criteria's grade inside the
// given departments whose evaluation point reaches the threshold, highest first.
func (r *GormDirectoryRepository) FindEligibleEmployees(ctx context.Context, criteria organization.EligibilityCriteria) ([]organization.Employee, error) {
	if len(criteria.DepartmentIDs) == 0 {
		return nil, nil
	}

	var rows []models.EmployeeModel
	if err := r.db.WithContext(ctx).
		Where("grade_id = ?", criteria.GradeID).
		Where("department_id IN ?", criteria.DepartmentIDs).
		Where("evaluation_point >= ?", criteria.MinEvaluationPoint).
		Order("evaluation_point DESC, employee_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	employees := make([]organization.Employee, 0, len(rows))
	for i := range rows {
		employees = append(employees, *rows[i].ToDomain())
	}
	return employees, nil
}

// UpdateGrade sets the employee's current grade
func (r *GormDirectoryRepository) UpdateGrade(ctx context.Context, employeeID, gradeID uuid.UUID) error {
	return r.updateEmployee(ctx, employeeID, map[string]interface{}{
		"grade_id": gradeID,
	})
}

// UpdateAssignment applies department and job title changes
func (r *GormDirectoryRepository) UpdateAssignment(ctx context.Context, employeeID uuid.UUID, assignment organization.Assignment) error {
	updates := make(map[string]interface{}, 2)
	if assignment.DepartmentID != nil {
		exists, err := r.DepartmentExists(ctx, *assignment.DepartmentID)
		if err != nil {
			return err
		}
		if !exists {
			return organization.ErrDepartmentNotFound
		}
		updates["department_id"] = *assignment.DepartmentID
	}
	if assignment.JobTitle != nil {
		updates["job_title"] = *assignment.JobTitle
	}
	if len(updates) == 0 {
		return nil
	}
	return r.updateEmployee(ctx, employeeID, updates)
}

func (r *GormDirectoryRepository) updateEmployee(ctx context.Context, employeeID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.EmployeeModel{}).
		Where("id = ?", employeeID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return organization.ErrEmployeeNotFound
	}
	return nil
}

// AppendGradeHistory appends an immutable history row
func (r *GormDirectoryRepository) AppendGradeHistory(ctx context.Context, history *organization.GradeHistory) error {
	return r.db.WithContext(ctx).Create(models.GradeHistoryModelFromDomain(history)).Error
}

// CountGradeHistory counts history rows of an employee
func (r *GormDirectoryRepository) CountGradeHistory(ctx context.Context, employeeID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.GradeHistoryModel{}).
		Where("employee_id = ?", employeeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindGradeHistory lists the history rows of an employee, oldest first
func (r *GormDirectoryRepository) FindGradeHistory(ctx context.Context, employeeID uuid.UUID) ([]organization.GradeHistory, error) {
	var rows []models.GradeHistoryModel
	if err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("changed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]organization.GradeHistory, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Ensure GormDirectoryRepository implements the organization ports
var (
	_ organization.Directory      = (*GormDirectoryRepository)(nil)
	_ organization.EmployeeWriter = (*GormDirectoryRepository)(nil)
)
