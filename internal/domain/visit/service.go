package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/scheduling"
)

// AppointmentCompleter marks the anchoring appointment completed.
// *scheduling.Service satisfies it.
type AppointmentCompleter interface {
	Complete(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

// Biller opens the draft bill a completed visit produces.
// *billing.Service satisfies it.
type Biller interface {
	CreateDraft(ctx context.Context, patientID uuid.UUID, visitID *uuid.UUID) (*billing.Bill, error)
	AddItem(ctx context.Context, billID uuid.UUID, description string, quantity int, unitPrice float64) (*billing.BillItem, error)
}

type Service struct {
	visits Repository
	appts  AppointmentCompleter
	biller Biller
}

func NewService(visits Repository, appts AppointmentCompleter, biller Biller) *Service {
	return &Service{visits: visits, appts: appts, biller: biller}
}

// Start opens a visit for a patient, optionally anchored to an appointment.
func (s *Service) Start(ctx context.Context, v *Visit) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	v.Status = StatusOpen
	return s.visits.Create(ctx, v)
}

// CompletionResult reports the side effects of closing a visit.
type CompletionResult struct {
	Visit *Visit        `json:"visit"`
	Bill  *billing.Bill `json:"bill,omitempty"`
}

// Complete closes the visit, marks its appointment completed, and opens a
// draft bill carrying the consultation fee. The bill starts as a draft so
// the cashier can add lines before issuing it.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, diagnosis, notes *string, consultationFee float64) (*CompletionResult, error) {
	v, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status == StatusCompleted {
		return nil, ErrVisitClosed
	}

	now := time.Now()
	v.Diagnosis = diagnosis
	v.Notes = notes
	v.Status = StatusCompleted
	v.CompletedAt = &now
	if err := s.visits.Update(ctx, v); err != nil {
		return nil, err
	}

	if v.AppointmentID != nil {
		// An appointment already moved on (e.g. cancelled while the
		// doctor was charting) does not undo the visit.
		if _, err := s.appts.Complete(ctx, *v.AppointmentID); err != nil &&
			!errors.Is(err, scheduling.ErrInvalidTransition) {
			return nil, fmt.Errorf("visit completed but appointment update failed: %w", err)
		}
	}

	bill, err := s.biller.CreateDraft(ctx, v.PatientID, &v.ID)
	if err != nil {
		return nil, fmt.Errorf("visit completed but billing failed: %w", err)
	}
	if consultationFee > 0 {
		if _, err := s.biller.AddItem(ctx, bill.ID, "consultation", 1, consultationFee); err != nil {
			return nil, fmt.Errorf("visit completed but billing failed: %w", err)
		}
		bill.Amount = consultationFee
		bill.Status = billing.StatusOpen
	}

	return &CompletionResult{Visit: v, Bill: bill}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.visits.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	return s.visits.ListByPatient(ctx, patientID, limit, offset)
}
