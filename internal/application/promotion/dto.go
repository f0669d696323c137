package promotion

import (
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/promotion"
)

// RegisterPlanRequest represents a request to register a promotion plan
type RegisterPlanRequest struct {
	Name               string                `json:"name"`
	Content            string                `json:"content"`
	NominationDeadline time.Time             `json:"nomination_deadline"`
	AppointmentDate    time.Time             `json:"appointment_date"`
	Details            []RegisterDetailInput `json:"details"`
}

// RegisterDetailInput is one department/grade/quota allocation of a new plan
type RegisterDetailInput struct {
	DepartmentID  uuid.UUID `json:"department_id"`
	TargetGradeID uuid.UUID `json:"target_grade_id"`
	QuotaCount    int       `json:"quota_count"`
}

// RegisterPlanResult reports the registered plan and the discovery outcome per detail
type RegisterPlanResult struct {
	Plan      PlanResponse      `json:"plan"`
	Discovery []DiscoveryResult `json:"discovery"`
}

// FailedDetails returns the number of details whose discovery failed
func (r *RegisterPlanResult) FailedDetails() int {
	n := 0
	for _, d := range r.Discovery {
		if d.Error != "" {
			n++
		}
	}
	return n
}

// DiscoveryResult summarizes one discovery run for a detail
type DiscoveryResult struct {
	DetailID     uuid.UUID   `json:"detail_id"`
	SourceGrade  string      `json:"source_grade,omitempty"`
	TargetGrade  string      `json:"target_grade,omitempty"`
	Registered   int         `json:"registered"`
	Skipped      int         `json:"skipped"`
	CandidateIDs []uuid.UUID `json:"candidate_ids,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// PlanResponse represents a plan in API responses
type PlanResponse struct {
	ID                 uuid.UUID        `json:"id"`
	Name               string           `json:"name"`
	Content            string           `json:"content"`
	NominationDeadline time.Time        `json:"nomination_deadline"`
	AppointmentDate    time.Time        `json:"appointment_date"`
	Details            []DetailResponse `json:"details"`
	CreatedAt          time.Time        `json:"created_at"`
}

// DetailResponse represents a plan detail in API responses
type DetailResponse struct {
	ID            uuid.UUID `json:"id"`
	DepartmentID  uuid.UUID `json:"department_id"`
	TargetGradeID uuid.UUID `json:"target_grade_id"`
	QuotaCount    int       `json:"quota_count"`
}

// NominateRequest represents a peer nomination
type NominateRequest struct {
	NominatorID uuid.UUID `json:"nominator_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Reason      string    `json:"reason"`
}

// ReviewRequest represents a first-stage review decision
type ReviewRequest struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Passed      bool      `json:"is_passed"`
	Comment     string    `json:"comment"`
}

// FinalApprovalRequest represents a final decision on a review-passed candidate
type FinalApprovalRequest struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Passed      bool      `json:"is_passed"`
	Comment     string    `json:"comment"`
	ActorID     uuid.UUID `json:"actor_id"` // recorded as ChangedBy on the grade history
}

// DirectPromoteRequest represents an off-cycle promotion without a candidate
type DirectPromoteRequest struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	TargetGradeID uuid.UUID `json:"target_grade_id"`
	ActorID       uuid.UUID `json:"actor_id"`
}

// CandidateResponse represents a candidate in API responses
type CandidateResponse struct {
	ID                      uuid.UUID  `json:"id"`
	DetailID                uuid.UUID  `json:"detail_id"`
	EmployeeID              uuid.UUID  `json:"employee_id"`
	NominatorID             *uuid.UUID `json:"nominator_id,omitempty"`
	NominationReason        string     `json:"nomination_reason,omitempty"`
	EvaluationPointSnapshot int        `json:"evaluation_point_snapshot"`
	Status                  string     `json:"status"`
	Comment                 string     `json:"comment,omitempty"`
	Version                 int        `json:"version"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// QuotaStatusResponse shows how much of a detail's quota is taken
type QuotaStatusResponse struct {
	DetailID  uuid.UUID `json:"detail_id"`
	Quota     int       `json:"quota"`
	Passed    int64     `json:"passed"`
	Remaining int64     `json:"remaining"`
}

// GradeChangeResponse reports an applied grade change
type GradeChangeResponse struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	GradeID    uuid.UUID `json:"grade_id"`
	GradeName  string    `json:"grade_name"`
}

// ToPlanResponse converts a domain Plan to PlanResponse
func ToPlanResponse(p *promotion.Plan) PlanResponse {
	details := make([]DetailResponse, len(p.Details))
	for i, d := range p.Details {
		details[i] = DetailResponse{
			ID:            d.ID,
			DepartmentID:  d.DepartmentID,
			TargetGradeID: d.TargetGradeID,
			QuotaCount:    d.QuotaCount,
		}
	}
	return PlanResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Content:            p.Content,
		NominationDeadline: p.NominationDeadline,
		AppointmentDate:    p.AppointmentDate,
		Details:            details,
		CreatedAt:          p.CreatedAt,
	}
}

// ToCandidateResponse converts a domain Candidate to CandidateResponse
func ToCandidateResponse(c *promotion.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:                      c.ID,
		DetailID:                c.DetailID,
		EmployeeID:              c.EmployeeID,
		NominatorID:             c.NominatorID,
		NominationReason:        c.NominationReason,
		EvaluationPointSnapshot: c.EvaluationPointSnapshot,
		Status:                  c.Status.String(),
		Comment:                 c.Comment,
		Version:                 c.Version,
		UpdatedAt:               c.UpdatedAt,
	}
}
