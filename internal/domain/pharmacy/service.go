package pharmacy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/platform/realtime"
)

const medicationsTopic = "medications"

// Biller appends the dispensed medication to the patient's bill.
// *billing.Service satisfies it.
type Biller interface {
	AddItem(ctx context.Context, billID uuid.UUID, description string, quantity int, unitPrice float64) (*billing.BillItem, error)
}

type Service struct {
	meds      Repository
	biller    Biller
	publisher realtime.Publisher
}

func NewService(meds Repository, biller Biller, publisher realtime.Publisher) *Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{meds: meds, biller: biller, publisher: publisher}
}

func (s *Service) AddMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	if m.UnitPrice < 0 {
		return fmt.Errorf("unit_price must not be negative")
	}
	if err := s.meds.CreateMedication(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, "created", m.ID)
	return nil
}

func (s *Service) Restock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("restock quantity must be positive")
	}
	if err := s.meds.AdjustStock(ctx, id, quantity); err != nil {
		return err
	}
	s.publish(ctx, "updated", id)
	return nil
}

// DispenseRequest describes one hand-out at the pharmacy counter.
type DispenseRequest struct {
	MedicationID uuid.UUID  `json:"medication_id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	BillID       *uuid.UUID `json:"bill_id,omitempty"`
	Quantity     int        `json:"quantity"`
}

// Dispense takes stock and, when a bill is given, adds the medication as a
// line on it. The stock decrement happens first: a dispense that cannot be
// covered never reaches the bill.
func (s *Service) Dispense(ctx context.Context, req DispenseRequest, actor string) (*DispenseRecord, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	m, err := s.meds.GetMedication(ctx, req.MedicationID)
	if err != nil {
		return nil, err
	}

	if err := s.meds.AdjustStock(ctx, req.MedicationID, -req.Quantity); err != nil {
		return nil, err
	}

	d := &DispenseRecord{
		MedicationID: req.MedicationID,
		PatientID:    req.PatientID,
		BillID:       req.BillID,
		Quantity:     req.Quantity,
		DispensedBy:  actor,
	}
	if err := s.meds.CreateDispense(ctx, d); err != nil {
		return nil, err
	}

	if req.BillID != nil {
		if _, err := s.biller.AddItem(ctx, *req.BillID, m.Name, req.Quantity, m.UnitPrice); err != nil {
			return nil, fmt.Errorf("dispensed but billing failed: %w", err)
		}
	}

	s.publish(ctx, "updated", req.MedicationID)
	return d, nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.meds.GetMedication(ctx, id)
}

func (s *Service) SearchMedications(ctx context.Context, query string, limit, offset int) ([]*Medication, int, error) {
	return s.meds.SearchMedications(ctx, query, limit, offset)
}

func (s *Service) ListDispensesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*DispenseRecord, int, error) {
	return s.meds.ListDispensesByPatient(ctx, patientID, limit, offset)
}

func (s *Service) publish(ctx context.Context, action string, id uuid.UUID) {
	_ = s.publisher.Publish(ctx, realtime.ChangeEvent{
		Action: action,
		Topic:  medicationsTopic,
		RowID:  id.String(),
	})
}
