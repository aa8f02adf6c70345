package visit

import (
	"time"

	"github.com/google/uuid"
)

// Visit statuses.
const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
)

// Visit maps to the visit table: one consultation episode, usually anchored
// to an appointment.
type Visit struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	Status        string     `db:"status" json:"status"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}
