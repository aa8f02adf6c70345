package billing

import (
	"time"

	"github.com/google/uuid"
)

// Bill statuses.
const (
	StatusDraft = "draft"
	StatusOpen  = "open"
	StatusPaid  = "paid"
)

// Bill maps to the bill table. Amount is the sum of its items; AmountPaid
// accumulates payments.
type Bill struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	VisitID    *uuid.UUID `db:"visit_id" json:"visit_id,omitempty"`
	LabOrderID *uuid.UUID `db:"lab_order_id" json:"lab_order_id,omitempty"`
	Amount     float64    `db:"amount" json:"amount"`
	AmountPaid float64    `db:"amount_paid" json:"amount_paid"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// FullyPaid is the gate other workflows check before proceeding.
func (b *Bill) FullyPaid() bool {
	return b.AmountPaid >= b.Amount
}

// BillItem is one service or medication line on a bill.
type BillItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BillID      uuid.UUID `db:"bill_id" json:"bill_id"`
	Description string    `db:"description" json:"description"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	Amount      float64   `db:"amount" json:"amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
