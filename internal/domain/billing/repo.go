package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("bill not found")

	// ErrBillPaid rejects mutations of a settled bill.
	ErrBillPaid = errors.New("bill is already paid")
)

type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// GetByLabOrder returns nil, ErrNotFound when the order has no bill.
	GetByLabOrder(ctx context.Context, orderID uuid.UUID) (*Bill, error)
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Bill, error)
	Update(ctx context.Context, b *Bill) error
	AddItem(ctx context.Context, item *BillItem) error
	ListItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error)
}
