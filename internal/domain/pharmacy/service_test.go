package pharmacy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
)

// -- Mocks --

type mockMedRepo struct {
	meds      map[uuid.UUID]*Medication
	dispenses []*DispenseRecord
}

func newMockMedRepo() *mockMedRepo {
	return &mockMedRepo{meds: make(map[uuid.UUID]*Medication)}
}

func (m *mockMedRepo) CreateMedication(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	m.meds[med.ID] = med
	return nil
}

func (m *mockMedRepo) GetMedication(_ context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *med
	return &copied, nil
}

func (m *mockMedRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	med, ok := m.meds[id]
	if !ok {
		return ErrNotFound
	}
	if med.Stock+delta < 0 {
		return ErrInsufficientStock
	}
	med.Stock += delta
	return nil
}

func (m *mockMedRepo) SearchMedications(_ context.Context, query string, limit, offset int) ([]*Medication, int, error) {
	var out []*Medication
	for _, med := range m.meds {
		if query == "" || strings.Contains(strings.ToLower(med.Name), strings.ToLower(query)) {
			out = append(out, med)
		}
	}
	return out, len(out), nil
}

func (m *mockMedRepo) CreateDispense(_ context.Context, d *DispenseRecord) error {
	d.ID = uuid.New()
	m.dispenses = append(m.dispenses, d)
	return nil
}

func (m *mockMedRepo) ListDispensesByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*DispenseRecord, int, error) {
	var out []*DispenseRecord
	for _, d := range m.dispenses {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

type mockBiller struct {
	items []*billing.BillItem
}

func (m *mockBiller) AddItem(_ context.Context, billID uuid.UUID, description string, quantity int, unitPrice float64) (*billing.BillItem, error) {
	item := &billing.BillItem{
		ID:          uuid.New(),
		BillID:      billID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      float64(quantity) * unitPrice,
	}
	m.items = append(m.items, item)
	return item, nil
}

// -- Tests --

func seedMedication(t *testing.T, svc *Service, stock int) *Medication {
	t.Helper()
	m := &Medication{Name: "amoxicillin 500mg", Stock: stock, UnitPrice: 2.5}
	if err := svc.AddMedication(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestDispense_DecrementsStockAndBills(t *testing.T) {
	repo, biller := newMockMedRepo(), &mockBiller{}
	svc := NewService(repo, biller, nil)
	ctx := context.Background()

	m := seedMedication(t, svc, 10)
	billID := uuid.New()

	d, err := svc.Dispense(ctx, DispenseRequest{
		MedicationID: m.ID,
		PatientID:    uuid.New(),
		BillID:       &billID,
		Quantity:     3,
	}, "pharm-1")
	if err != nil {
		t.Fatalf("Dispense: %v", err)
	}

	got, _ := svc.GetMedication(ctx, m.ID)
	if got.Stock != 7 {
		t.Errorf("stock = %d, want 7", got.Stock)
	}
	if d.DispensedBy != "pharm-1" {
		t.Errorf("dispensed_by = %s", d.DispensedBy)
	}
	if len(biller.items) != 1 {
		t.Fatal("no bill line added")
	}
	if item := biller.items[0]; item.Description != "amoxicillin 500mg" ||
		item.Quantity != 3 || item.Amount != 7.5 {
		t.Errorf("bill line = %+v", item)
	}
}

func TestDispense_InsufficientStock(t *testing.T) {
	repo, biller := newMockMedRepo(), &mockBiller{}
	svc := NewService(repo, biller, nil)
	ctx := context.Background()

	m := seedMedication(t, svc, 2)

	_, err := svc.Dispense(ctx, DispenseRequest{
		MedicationID: m.ID,
		PatientID:    uuid.New(),
		Quantity:     3,
	}, "pharm-1")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}

	got, _ := svc.GetMedication(ctx, m.ID)
	if got.Stock != 2 {
		t.Errorf("stock mutated to %d on failed dispense", got.Stock)
	}
	if len(repo.dispenses) != 0 || len(biller.items) != 0 {
		t.Error("failed dispense left records behind")
	}
}

func TestDispense_WithoutBillSkipsBilling(t *testing.T) {
	repo, biller := newMockMedRepo(), &mockBiller{}
	svc := NewService(repo, biller, nil)

	m := seedMedication(t, svc, 5)
	if _, err := svc.Dispense(context.Background(), DispenseRequest{
		MedicationID: m.ID,
		PatientID:    uuid.New(),
		Quantity:     1,
	}, "pharm-1"); err != nil {
		t.Fatal(err)
	}
	if len(biller.items) != 0 {
		t.Error("bill line added without a bill")
	}
}

func TestRestock(t *testing.T) {
	repo := newMockMedRepo()
	svc := NewService(repo, &mockBiller{}, nil)
	ctx := context.Background()

	m := seedMedication(t, svc, 1)
	if err := svc.Restock(ctx, m.ID, 24); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.GetMedication(ctx, m.ID)
	if got.Stock != 25 {
		t.Errorf("stock = %d, want 25", got.Stock)
	}

	if err := svc.Restock(ctx, m.ID, 0); err == nil {
		t.Error("zero restock accepted")
	}
}
