package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/organization"
)

// GradeModel is the persistence model for a rung of the grade ladder
type GradeModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key"`
	Name               string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Rank               int       `gorm:"column:grade_rank;not null;uniqueIndex"`
	MinEvaluationPoint int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (GradeModel) TableName() string {
	return "grades"
}

// ToDomain converts the persistence model to a domain Grade
func (m *GradeModel) ToDomain() organization.Grade {
	return organization.Grade{
		ID:                 m.ID,
		Name:               m.Name,
		Rank:               m.Rank,
		MinEvaluationPoint: m.MinEvaluationPoint,
	}
}

// GradeModelFromDomain creates a persistence model from a domain Grade
func GradeModelFromDomain(g organization.Grade) *GradeModel {
	return &GradeModel{
		ID:                 g.ID,
		Name:               g.Name,
		Rank:               g.Rank,
		MinEvaluationPoint: g.MinEvaluationPoint,
	}
}

// DepartmentModel is the persistence model for a node of the department tree
type DepartmentModel struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key"`
	Name     string     `gorm:"type:varchar(100);not null"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (DepartmentModel) TableName() string {
	return "departments"
}

// ToDomain converts the persistence model to a domain Department
func (m *DepartmentModel) ToDomain() organization.Department {
	return organization.Department{
		ID:       m.ID,
		Name:     m.Name,
		ParentID: m.ParentID,
	}
}

// DepartmentModelFromDomain creates a persistence model from a domain Department
func DepartmentModelFromDomain(d organization.Department) *DepartmentModel {
	return &DepartmentModel{
		ID:       d.ID,
		Name:     d.Name,
		ParentID: d.ParentID,
	}
}

// EmployeeModel is the persistence model for the employee master record.
// Only grade, department and job title are written by this service.
type EmployeeModel struct {
	BaseModel
	EmployeeNumber  string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string    `gorm:"type:varchar(100);not null"`
	DepartmentID    uuid.UUID `gorm:"type:uuid;not null;index"`
	GradeID         uuid.UUID `gorm:"type:uuid;not null;index"`
	JobTitle        string    `gorm:"type:varchar(100)"`
	EvaluationPoint int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (EmployeeModel) TableName() string {
	return "employees"
}

// ToDomain converts the persistence model to a domain Employee snapshot
func (m *EmployeeModel) ToDomain() *organization.Employee {
	return &organization.Employee{
		ID:              m.ID,
		EmployeeNumber:  m.EmployeeNumber,
		Name:            m.Name,
		DepartmentID:    m.DepartmentID,
		GradeID:         m.GradeID,
		JobTitle:        m.JobTitle,
		EvaluationPoint: m.EvaluationPoint,
	}
}

// EmployeeModelFromDomain creates a persistence model from a domain Employee
func EmployeeModelFromDomain(e organization.Employee) *EmployeeModel {
	now := time.Now()
	return &EmployeeModel{
		BaseModel:       BaseModel{ID: e.ID, CreatedAt: now, UpdatedAt: now},
		EmployeeNumber:  e.EmployeeNumber,
		Name:            e.Name,
		DepartmentID:    e.DepartmentID,
		GradeID:         e.GradeID,
		JobTitle:        e.JobTitle,
		EvaluationPoint: e.EvaluationPoint,
	}
}

// GradeHistoryModel is the persistence model for an append-only grade change row
type GradeHistoryModel struct {
	ID         uuid.UUID                    `gorm:"type:uuid;primary_key"`
	EmployeeID uuid.UUID                    `gorm:"type:uuid;not null;index"`
	ChangedBy  uuid.UUID                    `gorm:"type:uuid;not null"`
	ChangeType organization.GradeChangeType `gorm:"type:varchar(20);not null"`
	GradeName  string                       `gorm:"type:varchar(50);not null"`
	ChangedAt  time.Time                    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (GradeHistoryModel) TableName() string {
	return "grade_histories"
}

// ToDomain converts the persistence model to a domain GradeHistory
func (m *GradeHistoryModel) ToDomain() *organization.GradeHistory {
	return &organization.GradeHistory{
		ID:         m.ID,
		EmployeeID: m.EmployeeID,
		ChangedBy:  m.ChangedBy,
		ChangeType: m.ChangeType,
		GradeName:  m.GradeName,
		ChangedAt:  m.ChangedAt,
	}
}

// GradeHistoryModelFromDomain creates a persistence model from a domain GradeHistory
func GradeHistoryModelFromDomain(h *organization.GradeHistory) *GradeHistoryModel {
	return &GradeHistoryModel{
		ID:         h.ID,
		EmployeeID: h.EmployeeID,
		ChangedBy:  h.ChangedBy,
		ChangeType: h.ChangeType,
		GradeName:  h.GradeName,
		ChangedAt:  h.ChangedAt,
	}
}
