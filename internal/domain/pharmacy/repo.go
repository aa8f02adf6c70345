package pharmacy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("medication not found")

	// ErrInsufficientStock rejects a dispense that would take stock
	// negative. Enforced by the conditional update, so concurrent
	// dispenses cannot oversell.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	CreateMedication(ctx context.Context, m *Medication) error
	GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error)
	// AdjustStock adds delta to the stock level. A negative delta that
	// would cross zero returns ErrInsufficientStock and changes nothing.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	SearchMedications(ctx context.Context, query string, limit, offset int) ([]*Medication, int, error)
	CreateDispense(ctx context.Context, d *DispenseRecord) error
	ListDispensesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*DispenseRecord, int, error)
}
