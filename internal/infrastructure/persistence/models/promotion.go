package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/promotion"
)

// PlanModel is the persistence model for the PromotionPlan aggregate
type PlanModel struct {
	AggregateModel
	Name               string        `gorm:"type:varchar(200);not null"`
	Content            string        `gorm:"type:text"`
	NominationDeadline time.Time     `gorm:"type:date;not null"`
	AppointmentDate    time.Time     `gorm:"type:date;not null"`
	Details            []DetailModel `gorm:"foreignKey:PlanID"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "promotion_plans"
}

// ToDomain converts the persistence model to a domain Plan. Details must be preloaded.
func (m *PlanModel) ToDomain() *promotion.Plan {
	plan := &promotion.Plan{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		Name:               m.Name,
		Content:            m.Content,
		NominationDeadline: dateOnly(m.NominationDeadline),
		AppointmentDate:    dateOnly(m.AppointmentDate),
		Details:            make([]promotion.Detail, 0, len(m.Details)),
	}
	for i := range m.Details {
		plan.Details = append(plan.Details, m.Details[i].ToDomain())
	}
	return plan
}

// PlanModelFromDomain creates a persistence model from a domain Plan, details included
func PlanModelFromDomain(p *promotion.Plan) *PlanModel {
	m := &PlanModel{
		Name:               p.Name,
		Content:            p.Content,
		NominationDeadline: dateOnly(p.NominationDeadline),
		AppointmentDate:    dateOnly(p.AppointmentDate),
		Details:            make([]DetailModel, 0, len(p.Details)),
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	for i, d := range p.Details {
		m.Details = append(m.Details, *DetailModelFromDomain(d, i))
	}
	return m
}

// DetailModel is the persistence model for a PromotionDetail.
// Position keeps the order in which details were added to the plan.
type DetailModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	PlanID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Position      int       `gorm:"not null;default:0"`
	DepartmentID  uuid.UUID `gorm:"type:uuid;not null"`
	TargetGradeID uuid.UUID `gorm:"type:uuid;not null"`
	QuotaCount    int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DetailModel) TableName() string {
	return "promotion_details"
}

// ToDomain converts the persistence model to a domain Detail
func (m *DetailModel) ToDomain() promotion.Detail {
	return promotion.Detail{
		ID:            m.ID,
		PlanID:        m.PlanID,
		DepartmentID:  m.DepartmentID,
		TargetGradeID: m.TargetGradeID,
		QuotaCount:    m.QuotaCount,
	}
}

// DetailModelFromDomain creates a persistence model from a domain Detail
func DetailModelFromDomain(d promotion.Detail, position int) *DetailModel {
	return &DetailModel{
		ID:            d.ID,
		PlanID:        d.PlanID,
		Position:      position,
		DepartmentID:  d.DepartmentID,
		TargetGradeID: d.TargetGradeID,
		QuotaCount:    d.QuotaCount,
	}
}

// CandidateModel is the persistence model for the PromotionCandidate aggregate
type CandidateModel struct {
	AggregateModel
	DetailID                uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_candidate_detail_employee"`
	EmployeeID              uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_candidate_detail_employee"`
	NominatorID             *uuid.UUID                `gorm:"type:uuid"`
	NominationReason        string                    `gorm:"type:text"`
	EvaluationPointSnapshot int                       `gorm:"not null"`
	Status                  promotion.CandidateStatus `gorm:"type:varchar(20);not null;index"`
	Comment                 string                    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CandidateModel) TableName() string {
	return "promotion_candidates"
}

// ToDomain converts the persistence model to a domain Candidate
func (m *CandidateModel) ToDomain() *promotion.Candidate {
	return &promotion.Candidate{
		BaseAggregateRoot:       m.ToAggregateRoot(),
		DetailID:                m.DetailID,
		EmployeeID:              m.EmployeeID,
		NominatorID:             m.NominatorID,
		NominationReason:        m.NominationReason,
		EvaluationPointSnapshot: m.EvaluationPointSnapshot,
		Status:                  m.Status,
		Comment:                 m.Comment,
	}
}

// CandidateModelFromDomain creates a persistence model from a domain Candidate
func CandidateModelFromDomain(c *promotion.Candidate) *CandidateModel {
	m := &CandidateModel{
		DetailID:                c.DetailID,
		EmployeeID:              c.EmployeeID,
		NominatorID:             c.NominatorID,
		NominationReason:        c.NominationReason,
		EvaluationPointSnapshot: c.EvaluationPointSnapshot,
		Status:                  c.Status,
		Comment:                 c.Comment,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
