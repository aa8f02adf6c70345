package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository persists appointments. Create and Update return
// ErrSlotTaken when the unique (scheduled_date, start_time) constraint over
// active appointments rejects the write.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	// CreateBatch inserts a recurring series atomically: either every
	// occurrence lands or none does.
	CreateBatch(ctx context.Context, appts []*Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// ListByDate returns appointments on the given date, optionally
	// filtered to the given statuses, ordered by start time.
	ListByDate(ctx context.Context, date time.Time, statuses []string) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
