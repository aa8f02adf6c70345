package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/realtime"
)

const billsTopic = "bills"

type Service struct {
	bills     Repository
	publisher realtime.Publisher
}

func NewService(bills Repository, publisher realtime.Publisher) *Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{bills: bills, publisher: publisher}
}

// CreateDraft opens an empty draft bill linked to a visit.
func (s *Service) CreateDraft(ctx context.Context, patientID uuid.UUID, visitID *uuid.UUID) (*Bill, error) {
	b := &Bill{
		PatientID: patientID,
		VisitID:   visitID,
		Status:    StatusDraft,
	}
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, "created", b)
	return b, nil
}

// CreateForLabOrder opens the bill that gates a lab order's progression.
func (s *Service) CreateForLabOrder(ctx context.Context, patientID, orderID uuid.UUID, amount float64) (*Bill, error) {
	if amount < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	b := &Bill{
		PatientID:  patientID,
		LabOrderID: &orderID,
		Amount:     amount,
		Status:     StatusOpen,
	}
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, "created", b)
	return b, nil
}

// AddItem appends a line and folds its amount into the bill total.
func (s *Service) AddItem(ctx context.Context, billID uuid.UUID, description string, quantity int, unitPrice float64) (*BillItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	b, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusPaid {
		return nil, ErrBillPaid
	}

	item := &BillItem{
		BillID:      billID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      float64(quantity) * unitPrice,
	}
	if err := s.bills.AddItem(ctx, item); err != nil {
		return nil, err
	}

	b.Amount += item.Amount
	if b.Status == StatusDraft {
		b.Status = StatusOpen
	}
	if err := s.bills.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, "updated", b)
	return item, nil
}

// RecordPayment applies a payment. The bill flips to paid once the running
// total covers the amount.
func (s *Service) RecordPayment(ctx context.Context, billID uuid.UUID, amount float64) (*Bill, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("payment must be positive")
	}
	b, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusPaid {
		return nil, ErrBillPaid
	}

	b.AmountPaid += amount
	if b.FullyPaid() {
		b.Status = StatusPaid
	}
	if err := s.bills.Update(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, "updated", b)
	return b, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

// BillForLabOrder is the payment-gate lookup used by the lab workflow.
func (s *Service) BillForLabOrder(ctx context.Context, orderID uuid.UUID) (*Bill, error) {
	return s.bills.GetByLabOrder(ctx, orderID)
}

func (s *Service) Items(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	return s.bills.ListItems(ctx, billID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) publish(ctx context.Context, action string, b *Bill) {
	_ = s.publisher.Publish(ctx, realtime.ChangeEvent{
		Action: action,
		Topic:  billsTopic,
		RowID:  b.ID.String(),
	})
}
