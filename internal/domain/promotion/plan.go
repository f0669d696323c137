package promotion

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// Plan is a named promotion campaign. It owns its details and is immutable once
// registered.
type Plan struct {
	shared.BaseAggregateRoot
	Name               string
	Content            string
	NominationDeadline time.Time // date only
	AppointmentDate    time.Time // date only, the effective date of promotions
	Details            []Detail
}

// Detail is one (department, target grade, quota) allocation inside a plan
type Detail struct {
	ID            uuid.UUID
	PlanID        uuid.UUID
	DepartmentID  uuid.UUID
	TargetGradeID uuid.UUID
	QuotaCount    int
}

// NewPlan creates a plan without details
func NewPlan(name, content string, nominationDeadline, appointmentDate time.Time) (*Plan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Plan name cannot be empty")
	}
	if nominationDeadline.IsZero() || appointmentDate.IsZero() {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Nomination deadline and appointment date are required")
	}

	deadline := DateOf(nominationDeadline)
	appointment := DateOf(appointmentDate)
	if DayAfter(deadline, appointment) {
		return nil, ErrInvalidPeriod
	}

	return &Plan{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Name:               name,
		Content:            content,
		NominationDeadline: deadline,
		AppointmentDate:    appointment,
	}, nil
}

// AddDetail allocates a quota for a department subtree and target grade
func (p *Plan) AddDetail(departmentID, targetGradeID uuid.UUID, quotaCount int) (*Detail, error) {
	if departmentID == uuid.Nil || targetGradeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Department and target grade are required")
	}
	if quotaCount < 1 {
		return nil, ErrInvalidQuota
	}

	p.Details = append(p.Details, Detail{
		ID:            uuid.New(),
		PlanID:        p.ID,
		DepartmentID:  departmentID,
		TargetGradeID: targetGradeID,
		QuotaCount:    quotaCount,
	})
	return &p.Details[len(p.Details)-1], nil
}

// CheckNominationOpen verifies that nominations may still change at now.
// Both bounds are inclusive of their day.
func (p *Plan) CheckNominationOpen(now time.Time) error {
	if DayAfter(now, p.AppointmentDate) {
		return ErrPlanFinished
	}
	if DayAfter(now, p.NominationDeadline) {
		return ErrNominationPeriodExpired
	}
	return nil
}

// HasRoomFor reports whether another candidate may pass review given the
// number of candidates already holding a passing status.
func (d Detail) HasRoomFor(passed int64) bool {
	return passed < int64(d.QuotaCount)
}

// DateOf truncates t to midnight in its own location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayAfter reports whether the calendar day of a, read in a's location, is
// later than the calendar day of b, read in b's location.
func DayAfter(a, b time.Time) bool {
	return dayKey(a) > dayKey(b)
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
