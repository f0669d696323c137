package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrcore/promotion/internal/domain/shared"
)

// Status is the processing state of a scheduled appointment
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusComplete Status = "COMPLETE"
	StatusFailed   Status = "FAILED"
)

// IsValid checks if the status is a valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

var ErrAppointmentNotFound = shared.NewDomainError("APPOINTMENT_NOT_FOUND", "Appointment not found")

// Appointment is a personnel change that takes effect on EffectiveDate.
// Payload holds the approved document body and is replayed by the daily sweep.
// SourceDocID names the approval document it came from; at most one
// appointment exists per document.
type Appointment struct {
	shared.BaseAggregateRoot
	EmployeeNumber string
	SourceDocID    string
	Payload        string
	EffectiveDate  time.Time
	Status         Status
	FailureReason  string
	ProcessedAt    *time.Time
}

// NewAppointment schedules a pending appointment
func NewAppointment(employeeNumber, payload string, effectiveDate time.Time) (*Appointment, error) {
	employeeNumber = strings.TrimSpace(employeeNumber)
	if employeeNumber == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Employee number is required")
	}
	if effectiveDate.IsZero() {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Effective date is required")
	}
	if _, err := ParsePayload([]byte(payload)); err != nil {
		return nil, err
	}

	y, m, d := effectiveDate.Date()
	return &Appointment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EmployeeNumber:    employeeNumber,
		Payload:           payload,
		EffectiveDate:     time.Date(y, m, d, 0, 0, 0, 0, effectiveDate.Location()),
		Status:            StatusPending,
	}, nil
}

// IsDue returns true if the appointment is pending and effective on or before today
func (a *Appointment) IsDue(today time.Time) bool {
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, a.EffectiveDate.Location())
	return a.Status == StatusPending && !a.EffectiveDate.After(day)
}

// Complete marks the appointment as applied
func (a *Appointment) Complete(now time.Time) error {
	if err := a.checkPending(); err != nil {
		return err
	}
	a.Status = StatusComplete
	a.FailureReason = ""
	a.processed(now)
	return nil
}

// Fail marks the appointment as failed with a reason shown on dashboards
func (a *Appointment) Fail(reason string, now time.Time) error {
	if err := a.checkPending(); err != nil {
		return err
	}
	if reason == "" {
		reason = "unknown error"
	}
	a.Status = StatusFailed
	a.FailureReason = reason
	a.processed(now)
	return nil
}

func (a *Appointment) checkPending() error {
	if a.Status != StatusPending {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			fmt.Sprintf("Appointment is already %s", a.Status))
	}
	return nil
}

func (a *Appointment) processed(now time.Time) {
	a.ProcessedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()
}
