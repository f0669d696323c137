package models

import (
	"time"

	"github.com/hrcore/promotion/internal/domain/appointment"
)

// AppointmentModel is the persistence model for a scheduled personnel appointment
type AppointmentModel struct {
	AggregateModel
	EmployeeNumber string             `gorm:"type:varchar(50);not null;index"`
	SourceDocID    *string            `gorm:"type:varchar(100);uniqueIndex:idx_appointment_source_doc"`
	Payload        string             `gorm:"type:text;not null"`
	EffectiveDate  time.Time          `gorm:"type:date;not null;index:idx_appointment_due,priority:2"`
	Status         appointment.Status `gorm:"type:varchar(20);not null;index:idx_appointment_due,priority:1"`
	FailureReason  string             `gorm:"type:text"`
	ProcessedAt    *time.Time
}

// TableName returns the table name for GORM
func (AppointmentModel) TableName() string {
	return "personnel_appointments"
}

// ToDomain converts the persistence model to a domain Appointment
func (m *AppointmentModel) ToDomain() *appointment.Appointment {
	return &appointment.Appointment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		EmployeeNumber:    m.EmployeeNumber,
		SourceDocID:       derefString(m.SourceDocID),
		Payload:           m.Payload,
		EffectiveDate:     dateOnly(m.EffectiveDate),
		Status:            m.Status,
		FailureReason:     m.FailureReason,
		ProcessedAt:       m.ProcessedAt,
	}
}

// AppointmentModelFromDomain creates a persistence model from a domain Appointment
func AppointmentModelFromDomain(a *appointment.Appointment) *AppointmentModel {
	m := &AppointmentModel{
		EmployeeNumber: a.EmployeeNumber,
		Payload:        a.Payload,
		EffectiveDate:  dateOnly(a.EffectiveDate),
		Status:         a.Status,
		FailureReason:  a.FailureReason,
		ProcessedAt:    a.ProcessedAt,
	}
	if a.SourceDocID != "" {
		docID := a.SourceDocID
		m.SourceDocID = &docID
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
