package lab

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("lab order not found")

	// ErrPaymentRequired rejects a gated transition on an unpaid bill.
	ErrPaymentRequired = errors.New("payment required before the lab order can proceed")

	// ErrInvalidTransition rejects any move the state machine does not
	// define; there is no path back to an earlier state.
	ErrInvalidTransition = errors.New("invalid lab order transition")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Order, int, error)
}
