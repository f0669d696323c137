package appointment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hrcore/promotion/internal/domain/organization"
	"github.com/hrcore/promotion/internal/domain/shared"
)

// FormKeyPersonnelAppointment is the approval form whose documents carry a Payload
const FormKeyPersonnelAppointment = "PERSONNEL_APPOINTMENT"

// PromotionType selects how the grade part of a payload is applied
type PromotionType string

const (
	// PromotionTypeSpecial promotes the employee directly into a named grade
	PromotionTypeSpecial PromotionType = "SPECIAL"
	// PromotionTypeRegular finalizes a reviewed promotion candidate
	PromotionTypeRegular PromotionType = "REGULAR"
)

var ErrInvalidPayload = shared.NewDomainError("INVALID_APPOINTMENT_PAYLOAD", "Appointment payload is malformed")

// Payload is the body of an approved personnel appointment document.
// A payload without promotionType only changes department or job title.
type Payload struct {
	PromotionType   PromotionType `json:"promotionType,omitempty"`
	CandidateID     *uuid.UUID    `json:"candidateId,omitempty"`
	EmployeeID      *uuid.UUID    `json:"employeeId,omitempty"`
	TargetGradeName string        `json:"targetGradeName,omitempty"`
	DepartmentID    *uuid.UUID    `json:"departmentId,omitempty"`
	JobTitle        *string       `json:"jobTitle,omitempty"`
	EffectiveDate   string        `json:"effectiveDate,omitempty"` // YYYY-MM-DD
}

// ParsePayload decodes and validates an appointment payload
func ParsePayload(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, shared.NewDomainError(ErrInvalidPayload.Code, fmt.Sprintf("Cannot decode payload: %v", err))
	}

	p.PromotionType = PromotionType(strings.ToUpper(strings.TrimSpace(string(p.PromotionType))))
	switch p.PromotionType {
	case "":
	case PromotionTypeRegular:
		if p.CandidateID == nil {
			return nil, shared.NewDomainError(ErrInvalidPayload.Code, "Regular promotion requires candidateId")
		}
	case PromotionTypeSpecial:
		if strings.TrimSpace(p.TargetGradeName) == "" {
			return nil, shared.NewDomainError(ErrInvalidPayload.Code, "Special promotion requires targetGradeName")
		}
	default:
		return nil, shared.NewDomainError(ErrInvalidPayload.Code,
			fmt.Sprintf("Unknown promotionType %q", p.PromotionType))
	}

	if p.EffectiveDate != "" {
		if _, err := p.EffectiveOn(time.UTC); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Assignment returns the department and job title part of the payload
func (p *Payload) Assignment() organization.Assignment {
	return organization.Assignment{
		DepartmentID: p.DepartmentID,
		JobTitle:     p.JobTitle,
	}
}

// EffectiveOn parses EffectiveDate in loc. A zero time means "immediately".
func (p *Payload) EffectiveOn(loc *time.Location) (time.Time, error) {
	if p.EffectiveDate == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, p.EffectiveDate, loc)
	if err != nil {
		return time.Time{}, shared.NewDomainError(ErrInvalidPayload.Code,
			fmt.Sprintf("Invalid effectiveDate %q", p.EffectiveDate))
	}
	return t, nil
}
