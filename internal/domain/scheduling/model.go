package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusArrived   = "arrived"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ActiveStatuses are the statuses that hold a slot. Cancelled and completed
// appointments release it.
var ActiveStatuses = []string{StatusScheduled, StatusArrived}

var validTransitions = map[string][]string{
	StatusScheduled: {StatusArrived, StatusCancelled},
	StatusArrived:   {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	ScheduledDate time.Time  `db:"scheduled_date" json:"scheduled_date"`
	StartTime     SlotTime   `db:"start_time" json:"start_time"`
	EndTime       SlotTime   `db:"end_time" json:"end_time"`
	Status        string     `db:"status" json:"status"`
	Reason        *string    `db:"reason" json:"reason,omitempty"`
	SeriesID      *uuid.UUID `db:"series_id" json:"series_id,omitempty"`
	CreatedBy     string     `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// SlotAvailability pairs a catalog slot with its advisory availability.
// The booking endpoint is the authority; this is display data that may be
// stale by the time a booking is attempted.
type SlotAvailability struct {
	Start     SlotTime `json:"start"`
	End       SlotTime `json:"end"`
	Available bool     `json:"available"`
}
