package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/notification"
)

// Allocator books the first free slot of the day. *scheduling.Service
// satisfies it.
type Allocator interface {
	AutoAllocate(ctx context.Context, date time.Time, patientID uuid.UUID, createdBy string) (*scheduling.Appointment, error)
}

type Service struct {
	patients  Repository
	allocator Allocator
	notifier  notification.Notifier
}

func NewService(patients Repository, allocator Allocator, notifier notification.Notifier) *Service {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
	return &Service{patients: patients, allocator: allocator, notifier: notifier}
}

// RegistrationResult reports what actually happened: registration can
// succeed while the same-day appointment does not.
type RegistrationResult struct {
	Patient     *Patient                `json:"patient"`
	Appointment *scheduling.Appointment `json:"appointment,omitempty"`
	// AppointmentNote explains a missing appointment when one was requested.
	AppointmentNote string `json:"appointment_note,omitempty"`
}

// Register creates the patient and, when asked, books the first free slot
// of today. A failed booking never rolls back the registration: the patient
// row is kept and the caller gets a partial-success note instead.
func (s *Service) Register(ctx context.Context, p *Patient, bookToday bool, actor string) (*RegistrationResult, error) {
	if p.FirstName == "" || p.LastName == "" {
		return nil, fmt.Errorf("first_name and last_name are required")
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}

	result := &RegistrationResult{Patient: p}
	if !bookToday {
		return result, nil
	}

	appt, err := s.allocator.AutoAllocate(ctx, time.Now(), p.ID, actor)
	if err != nil {
		result.AppointmentNote = "patient registered, but no appointment slot was available today"
		s.notifier.Notify(ctx, actor, notification.SeverityWarning, result.AppointmentNote)
		return result, nil
	}
	result.Appointment = appt
	return result, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// Update mutates contact and medical fields only; identity is fixed at
// registration.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	return s.patients.Update(ctx, p)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, query, limit, offset)
}
