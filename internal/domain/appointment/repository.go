package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository defines the interface for appointment persistence
type AppointmentRepository interface {
	// Create saves a new appointment
	Create(ctx context.Context, appointment *Appointment) error

	// FindByID finds an appointment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindBySourceDocID finds the appointment recorded for an approval document
	FindBySourceDocID(ctx context.Context, docID string) (*Appointment, error)

	// FindDue returns pending appointments effective on or before today,
	// oldest effective date first
	FindDue(ctx context.Context, today time.Time, limit int) ([]*Appointment, error)

	// Update persists a status change. Only a still-pending row is updated;
	// a row processed concurrently yields shared.ErrConcurrencyConflict.
	Update(ctx context.Context, appointment *Appointment) error
}
