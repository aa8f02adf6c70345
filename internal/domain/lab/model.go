package lab

import (
	"time"

	"github.com/google/uuid"
)

// Lab order states. The machine only moves forward:
// ordered -> sample_collected -> in_progress -> completed.
const (
	StatusOrdered         = "ordered"
	StatusSampleCollected = "sample_collected"
	StatusInProgress      = "in_progress"
	StatusCompleted       = "completed"
)

var nextState = map[string]string{
	StatusOrdered:         StatusSampleCollected,
	StatusSampleCollected: StatusInProgress,
	StatusInProgress:      StatusCompleted,
}

// paymentGated marks the transitions that require the linked bill to be
// fully paid before they may fire. Entering a result (in_progress ->
// completed) deliberately re-checks nothing.
var paymentGated = map[string]bool{
	StatusOrdered:         true,
	StatusSampleCollected: true,
}

// Order maps to the lab_order table.
type Order struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	TestName  string     `db:"test_name" json:"test_name"`
	Price     float64    `db:"price" json:"price"`
	Status    string     `db:"status" json:"status"`
	Result    *string    `db:"result" json:"result,omitempty"`
	OrderedBy string     `db:"ordered_by" json:"ordered_by"`
	ResultAt  *time.Time `db:"result_at" json:"result_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
