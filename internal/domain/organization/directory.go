package organization

import (
	"context"

	"github.com/google/uuid"
)

// Directory is the read port onto employee, department and grade master data.
// The promotion core depends only on this interface.
type Directory interface {
	ChildLister

	// GradeLadder loads every grade ordered by rank
	GradeLadder(ctx context.Context) (*GradeLadder, error)

	// DepartmentExists checks whether a department is known
	DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error)

	// FindEmployee finds an employee by ID
	FindEmployee(ctx context.Context, id uuid.UUID) (*Employee, error)

	// FindEmployeeByNumber finds an employee by personnel number
	FindEmployeeByNumber(ctx context.Context, number string) (*Employee, error)

	// FindEligibleEmployees returns matches ordered by evaluation point descending
	FindEligibleEmployees(ctx context.Context, criteria EligibilityCriteria) ([]Employee, error)
}

// EmployeeWriter is the write port for the few employee fields this core mutates
type EmployeeWriter interface {
	// UpdateGrade sets the employee's current grade
	UpdateGrade(ctx context.Context, employeeID, gradeID uuid.UUID) error

	// UpdateAssignment applies department and job title changes
	UpdateAssignment(ctx context.Context, employeeID uuid.UUID, assignment Assignment) error

	// AppendGradeHistory appends an immutable history row
	AppendGradeHistory(ctx context.Context, history *GradeHistory) error

	// CountGradeHistory counts history rows of an employee
	CountGradeHistory(ctx context.Context, employeeID uuid.UUID) (int64, error)
}
