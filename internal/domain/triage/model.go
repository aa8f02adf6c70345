package triage

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/scheduling"
)

// VitalSignsRecord maps to the vital_signs table. Records are append-only;
// a correction is a new record, never an update.
type VitalSignsRecord struct {
	ID               uuid.UUID `db:"id" json:"id"`
	PatientID        uuid.UUID `db:"patient_id" json:"patient_id"`
	Temperature      *float64  `db:"temperature" json:"temperature,omitempty"`
	HeartRate        *int      `db:"heart_rate" json:"heart_rate,omitempty"`
	BloodPressureSys *int      `db:"blood_pressure_sys" json:"blood_pressure_sys,omitempty"`
	BloodPressureDia *int      `db:"blood_pressure_dia" json:"blood_pressure_dia,omitempty"`
	OxygenSaturation *int      `db:"oxygen_saturation" json:"oxygen_saturation,omitempty"`
	Weight           *float64  `db:"weight" json:"weight,omitempty"`
	Complaints       *string   `db:"complaints" json:"complaints,omitempty"`
	RecordedBy       string    `db:"recorded_by" json:"recorded_by"`
	RecordedAt       time.Time `db:"recorded_at" json:"recorded_at"`
}

// QueueEntry is one row of the triage queue. It is derived on every fetch
// and never persisted.
type QueueEntry struct {
	PatientID     uuid.UUID               `json:"patient_id"`
	Vitals        *VitalSignsRecord       `json:"vitals"`
	Appointment   *scheduling.Appointment `json:"appointment,omitempty"`
	PriorityScore int                     `json:"priority_score"`
	Priority      string                  `json:"priority"`
}
