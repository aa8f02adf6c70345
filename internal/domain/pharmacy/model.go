package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Medication maps to the medication table.
type Medication struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Stock       int       `db:"stock" json:"stock"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DispenseRecord maps to the dispense table: one stock movement out.
type DispenseRecord struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	MedicationID uuid.UUID  `db:"medication_id" json:"medication_id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	BillID       *uuid.UUID `db:"bill_id" json:"bill_id,omitempty"`
	Quantity     int        `db:"quantity" json:"quantity"`
	DispensedBy  string     `db:"dispensed_by" json:"dispensed_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
