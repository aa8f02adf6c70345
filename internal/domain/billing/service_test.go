package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockBillRepo struct {
	bills map[uuid.UUID]*Bill
	items map[uuid.UUID][]*BillItem
}

func newMockBillRepo() *mockBillRepo {
	return &mockBillRepo{
		bills: make(map[uuid.UUID]*Bill),
		items: make(map[uuid.UUID][]*BillItem),
	}
}

func (m *mockBillRepo) Create(_ context.Context, b *Bill) error {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	m.bills[b.ID] = b
	return nil
}

func (m *mockBillRepo) GetByID(_ context.Context, id uuid.UUID) (*Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBillRepo) GetByLabOrder(_ context.Context, orderID uuid.UUID) (*Bill, error) {
	for _, b := range m.bills {
		if b.LabOrderID != nil && *b.LabOrderID == orderID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockBillRepo) GetByVisit(_ context.Context, visitID uuid.UUID) (*Bill, error) {
	for _, b := range m.bills {
		if b.VisitID != nil && *b.VisitID == visitID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockBillRepo) Update(_ context.Context, b *Bill) error {
	if _, ok := m.bills[b.ID]; !ok {
		return ErrNotFound
	}
	copied := *b
	m.bills[b.ID] = &copied
	return nil
}

func (m *mockBillRepo) AddItem(_ context.Context, item *BillItem) error {
	item.ID = uuid.New()
	m.items[item.BillID] = append(m.items[item.BillID], item)
	return nil
}

func (m *mockBillRepo) ListItems(_ context.Context, billID uuid.UUID) ([]*BillItem, error) {
	return m.items[billID], nil
}

func (m *mockBillRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	var out []*Bill
	for _, b := range m.bills {
		if b.PatientID == patientID {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func TestAddItem_AccumulatesAmountAndOpensDraft(t *testing.T) {
	svc := NewService(newMockBillRepo(), nil)
	ctx := context.Background()

	b, err := svc.CreateDraft(ctx, uuid.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddItem(ctx, b.ID, "consultation", 1, 50); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddItem(ctx, b.ID, "paracetamol", 2, 1.5); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Amount != 53 {
		t.Errorf("amount = %.2f, want 53.00", got.Amount)
	}
	if got.Status != StatusOpen {
		t.Errorf("status = %s, want open", got.Status)
	}
}

func TestRecordPayment_PartialThenFull(t *testing.T) {
	svc := NewService(newMockBillRepo(), nil)
	ctx := context.Background()

	b, err := svc.CreateForLabOrder(ctx, uuid.New(), uuid.New(), 100)
	if err != nil {
		t.Fatal(err)
	}

	b, err = svc.RecordPayment(ctx, b.ID, 40)
	if err != nil {
		t.Fatal(err)
	}
	if b.FullyPaid() || b.Status == StatusPaid {
		t.Error("bill reported paid after partial payment")
	}

	b, err = svc.RecordPayment(ctx, b.ID, 60)
	if err != nil {
		t.Fatal(err)
	}
	if !b.FullyPaid() || b.Status != StatusPaid {
		t.Errorf("bill not settled: paid=%.2f status=%s", b.AmountPaid, b.Status)
	}

	if _, err := svc.RecordPayment(ctx, b.ID, 1); !errors.Is(err, ErrBillPaid) {
		t.Errorf("payment on settled bill = %v, want ErrBillPaid", err)
	}
}

func TestAddItem_RejectedOnPaidBill(t *testing.T) {
	svc := NewService(newMockBillRepo(), nil)
	ctx := context.Background()

	b, err := svc.CreateForLabOrder(ctx, uuid.New(), uuid.New(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordPayment(ctx, b.ID, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddItem(ctx, b.ID, "extra", 1, 5); !errors.Is(err, ErrBillPaid) {
		t.Errorf("got %v, want ErrBillPaid", err)
	}
}

func TestBillForLabOrder(t *testing.T) {
	svc := NewService(newMockBillRepo(), nil)
	ctx := context.Background()
	orderID := uuid.New()

	if _, err := svc.BillForLabOrder(ctx, orderID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound before creation", err)
	}

	created, err := svc.CreateForLabOrder(ctx, uuid.New(), orderID, 25)
	if err != nil {
		t.Fatal(err)
	}
	found, err := svc.BillForLabOrder(ctx, orderID)
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != created.ID {
		t.Error("lookup returned a different bill")
	}
}
