package organization

import (
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/shared"
)

var (
	ErrEmployeeNotFound   = shared.NewDomainError("EMPLOYEE_NOT_FOUND", "Employee not found")
	ErrDepartmentNotFound = shared.NewDomainError("DEPARTMENT_NOT_FOUND", "Department not found")
)

// Employee is a read-only snapshot of the employee master record
type Employee struct {
	ID              uuid.UUID
	EmployeeNumber  string
	Name            string
	DepartmentID    uuid.UUID
	GradeID         uuid.UUID
	JobTitle        string
	EvaluationPoint int
}

// EligibilityCriteria selects promotion-eligible employees
type EligibilityCriteria struct {
	GradeID            uuid.UUID
	DepartmentIDs      []uuid.UUID
	MinEvaluationPoint int
}

// GradeChangeType classifies a grade history entry
type GradeChangeType string

const (
	GradeChangeTypePromotion GradeChangeType = "PROMOTION"
)

// GradeHistory is an append-only audit row of a grade change
type GradeHistory struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	ChangedBy  uuid.UUID
	ChangeType GradeChangeType
	GradeName  string
	ChangedAt  time.Time
}

// NewPromotionHistory records a promotion into gradeName performed by changedBy
func NewPromotionHistory(employeeID, changedBy uuid.UUID, gradeName string) *GradeHistory {
	return &GradeHistory{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		ChangedBy:  changedBy,
		ChangeType: GradeChangeTypePromotion,
		GradeName:  gradeName,
		ChangedAt:  time.Now(),
	}
}

// Assignment is a partial change of an employee's placement.
// Nil fields are left untouched.
type Assignment struct {
	DepartmentID *uuid.UUID
	JobTitle     *string
}

// IsEmpty returns true if the assignment changes nothing
func (a Assignment) IsEmpty() bool {
	return a.DepartmentID == nil && a.JobTitle == nil
}
