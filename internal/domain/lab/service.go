package lab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/platform/notification"
	"github.com/hms/hms/internal/platform/realtime"
)

const labOrdersTopic = "lab_orders"

// Biller creates and resolves the bills that gate order progression.
// *billing.Service satisfies it.
type Biller interface {
	CreateForLabOrder(ctx context.Context, patientID, orderID uuid.UUID, amount float64) (*billing.Bill, error)
	BillForLabOrder(ctx context.Context, orderID uuid.UUID) (*billing.Bill, error)
}

type Service struct {
	orders    Repository
	biller    Biller
	notifier  notification.Notifier
	publisher realtime.Publisher
}

func NewService(orders Repository, biller Biller, notifier notification.Notifier, publisher realtime.Publisher) *Service {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{orders: orders, biller: biller, notifier: notifier, publisher: publisher}
}

// CreateOrder places a lab order and opens the bill that gates it.
func (s *Service) CreateOrder(ctx context.Context, o *Order) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if o.TestName == "" {
		return fmt.Errorf("test_name is required")
	}
	if o.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	o.Status = StatusOrdered

	if err := s.orders.Create(ctx, o); err != nil {
		return err
	}
	if _, err := s.biller.CreateForLabOrder(ctx, o.PatientID, o.ID, o.Price); err != nil {
		return fmt.Errorf("order created but billing failed: %w", err)
	}

	s.publish(ctx, "created", o)
	return nil
}

// Advance moves an order to the next state. Gated transitions check the
// linked bill and refuse without mutating anything when it is not settled.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, actor string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := nextState[o.Status]
	if !ok {
		return nil, fmt.Errorf("%w: order is already %s", ErrInvalidTransition, o.Status)
	}
	if next == StatusCompleted {
		return nil, fmt.Errorf("%w: completion happens by entering a result", ErrInvalidTransition)
	}

	if paymentGated[o.Status] {
		if err := s.checkPaid(ctx, o.ID); err != nil {
			if errors.Is(err, ErrPaymentRequired) {
				s.notifier.Notify(ctx, actor, notification.SeverityError,
					fmt.Sprintf("lab order %s: payment required before %s", o.ID, next))
			}
			return nil, err
		}
	}

	o.Status = next
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, "updated", o)
	return o, nil
}

// EnterResult stores the result and completes the order implicitly. Only an
// in-progress order can take a result; there is no payment re-check here.
func (s *Service) EnterResult(ctx context.Context, id uuid.UUID, result string) (*Order, error) {
	if result == "" {
		return nil, fmt.Errorf("result is required")
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: result entry requires in_progress, order is %s",
			ErrInvalidTransition, o.Status)
	}

	now := time.Now()
	o.Status = StatusCompleted
	o.Result = &result
	o.ResultAt = &now
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, "updated", o)
	return o, nil
}

func (s *Service) checkPaid(ctx context.Context, orderID uuid.UUID) error {
	bill, err := s.biller.BillForLabOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			return ErrPaymentRequired
		}
		return err
	}
	if !bill.FullyPaid() {
		return ErrPaymentRequired
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return s.orders.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Order, int, error) {
	return s.orders.ListByStatus(ctx, status, limit, offset)
}

func (s *Service) publish(ctx context.Context, action string, o *Order) {
	_ = s.publisher.Publish(ctx, realtime.ChangeEvent{
		Action: action,
		Topic:  labOrdersTopic,
		RowID:  o.ID.String(),
	})
}
