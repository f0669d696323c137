package promotion

import (
	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeCandidate = "PromotionCandidate"
	AggregateTypeEmployee  = "Employee"
)

// Promotion domain event types
const (
	EventTypeCandidateReviewed  = "PromotionCandidateReviewed"
	EventTypeCandidateFinalized = "PromotionCandidateFinalized"
	EventTypeEmployeePromoted   = "EmployeePromoted"
)

// CandidateReviewedEvent is raised when the first-stage review decides a candidate
type CandidateReviewedEvent struct {
	shared.BaseDomainEvent
	DetailID   uuid.UUID       `json:"detail_id"`
	EmployeeID uuid.UUID       `json:"employee_id"`
	Status     CandidateStatus `json:"status"`
	Comment    string          `json:"comment,omitempty"`
}

// NewCandidateReviewedEvent creates a new CandidateReviewedEvent
func NewCandidateReviewedEvent(c *Candidate) *CandidateReviewedEvent {
	return &CandidateReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCandidateReviewed, AggregateTypeCandidate, c.ID),
		DetailID:        c.DetailID,
		EmployeeID:      c.EmployeeID,
		Status:          c.Status,
		Comment:         c.Comment,
	}
}

// CandidateFinalizedEvent is raised when a candidate reaches a final decision
type CandidateFinalizedEvent struct {
	shared.BaseDomainEvent
	DetailID   uuid.UUID       `json:"detail_id"`
	EmployeeID uuid.UUID       `json:"employee_id"`
	Status     CandidateStatus `json:"status"`
}

// NewCandidateFinalizedEvent creates a new CandidateFinalizedEvent
func NewCandidateFinalizedEvent(c *Candidate) *CandidateFinalizedEvent {
	return &CandidateFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCandidateFinalized, AggregateTypeCandidate, c.ID),
		DetailID:        c.DetailID,
		EmployeeID:      c.EmployeeID,
		Status:          c.Status,
	}
}

// EmployeePromotedEvent is raised after an employee's grade was changed
type EmployeePromotedEvent struct {
	shared.BaseDomainEvent
	GradeID   uuid.UUID `json:"grade_id"`
	GradeName string    `json:"grade_name"`
	ChangedBy uuid.UUID `json:"changed_by"`
	Direct    bool      `json:"direct"`
}

// NewEmployeePromotedEvent creates a new EmployeePromotedEvent
func NewEmployeePromotedEvent(employeeID, gradeID uuid.UUID, gradeName string, changedBy uuid.UUID, direct bool) *EmployeePromotedEvent {
	return &EmployeePromotedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEmployeePromoted, AggregateTypeEmployee, employeeID),
		GradeID:         gradeID,
		GradeName:       gradeName,
		ChangedBy:       changedBy,
		Direct:          direct,
	}
}
