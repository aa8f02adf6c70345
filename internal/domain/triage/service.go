package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/platform/realtime"
)

const vitalsTopic = "vitals"

// AppointmentSource supplies the day's appointments for queue assembly.
// *scheduling.Service satisfies it.
type AppointmentSource interface {
	ListByDate(ctx context.Context, date time.Time, statuses []string) ([]*scheduling.Appointment, error)
}

type Service struct {
	vitals    VitalsRepository
	appts     AppointmentSource
	publisher realtime.Publisher
}

func NewService(vitals VitalsRepository, appts AppointmentSource, publisher realtime.Publisher) *Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{vitals: vitals, appts: appts, publisher: publisher}
}

// RecordVitals appends a snapshot. An empty snapshot is allowed: it scores
// zero and queues the patient by recency alone.
func (s *Service) RecordVitals(ctx context.Context, v *VitalSignsRecord) error {
	if v.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now()
	}
	if err := s.vitals.Create(ctx, v); err != nil {
		return err
	}

	_ = s.publisher.Publish(ctx, realtime.ChangeEvent{
		Action: "created",
		Topic:  vitalsTopic,
		RowID:  v.ID.String(),
	})
	return nil
}

// Queue recomputes the triage queue for the given date from the datastore.
// Nothing is cached; a refresh is always a full re-derivation.
func (s *Service) Queue(ctx context.Context, date time.Time) ([]*QueueEntry, error) {
	vitals, err := s.vitals.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	appts, err := s.appts.ListByDate(ctx, date, nil)
	if err != nil {
		return nil, err
	}
	return BuildQueue(vitals, appts), nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error) {
	return s.vitals.ListByPatient(ctx, patientID, limit, offset)
}
