package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/realtime"
)

const appointmentsTopic = "appointments"

type Service struct {
	appts     AppointmentRepository
	publisher realtime.Publisher
}

func NewService(appts AppointmentRepository, publisher realtime.Publisher) *Service {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{appts: appts, publisher: publisher}
}

// BookingRequest is a request for a specific slot on a specific day.
type BookingRequest struct {
	PatientID uuid.UUID  `json:"patient_id"`
	DoctorID  *uuid.UUID `json:"doctor_id,omitempty"`
	Date      time.Time  `json:"date"`
	StartTime SlotTime   `json:"start_time"`
	Reason    *string    `json:"reason,omitempty"`
	CreatedBy string     `json:"-"`
}

// RecurringRequest books a series of slots at the same time of day.
type RecurringRequest struct {
	BookingRequest
	Frequency Frequency `json:"frequency"`
	EndDate   time.Time `json:"end_date"`
}

func (req *BookingRequest) validate() error {
	if req.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if req.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	return validateCatalogSlot(req.StartTime)
}

// validateCatalogSlot rejects start times outside the bookable catalog.
func validateCatalogSlot(t SlotTime) error {
	m := t.Minutes()
	if m%SlotDurationMinutes != 0 || m < openingHour*60 || m >= closingHour*60 {
		return fmt.Errorf("start time %s is not a bookable slot", t)
	}
	return nil
}

// AvailableSlots returns the day's slot catalog annotated with advisory
// availability. The set can go stale the moment it is computed; Book is the
// authority.
func (s *Service) AvailableSlots(ctx context.Context, date time.Time) ([]SlotAvailability, error) {
	booked, err := s.appts.ListByDate(ctx, date, ActiveStatuses)
	if err != nil {
		return nil, err
	}

	taken := make(map[int]bool, len(booked))
	for _, a := range booked {
		taken[a.StartTime.Minutes()] = true
	}

	catalog := DailySlots()
	out := make([]SlotAvailability, 0, len(catalog))
	for _, slot := range catalog {
		out = append(out, SlotAvailability{
			Start:     slot,
			End:       slot.End(),
			Available: !taken[slot.Minutes()],
		})
	}
	return out, nil
}

// Book attempts to claim the requested slot. The database constraint is the
// arbiter of races: a lost race surfaces as a SlotConflictError carrying the
// re-fetched booked set, never as a silent double booking.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		ScheduledDate: truncateToDay(req.Date),
		StartTime:     req.StartTime,
		EndTime:       req.StartTime.End(),
		Status:        StatusScheduled,
		Reason:        req.Reason,
		CreatedBy:     req.CreatedBy,
	}

	if err := s.appts.Create(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, s.conflictFor(ctx, a.ScheduledDate, req.StartTime)
		}
		return nil, err
	}

	s.publish(ctx, "created", a)
	return a, nil
}

// conflictFor builds a SlotConflictError with a fresh view of the day.
func (s *Service) conflictFor(ctx context.Context, date time.Time, start SlotTime) error {
	conflict := &SlotConflictError{Date: date, StartTime: start}
	if booked, err := s.appts.ListByDate(ctx, date, ActiveStatuses); err == nil {
		for _, b := range booked {
			conflict.BookedSlots = append(conflict.BookedSlots, b.StartTime)
		}
	}
	return conflict
}

// BookRecurring expands the recurrence and books every occurrence in one
// transaction. One taken slot anywhere in the series fails the whole series.
func (s *Service) BookRecurring(ctx context.Context, req RecurringRequest) ([]*Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	dates, err := ExpandRecurrence(req.Date, req.EndDate, req.Frequency)
	if err != nil {
		return nil, err
	}

	seriesID := uuid.New()
	appts := make([]*Appointment, 0, len(dates))
	for _, d := range dates {
		appts = append(appts, &Appointment{
			PatientID:     req.PatientID,
			DoctorID:      req.DoctorID,
			ScheduledDate: d,
			StartTime:     req.StartTime,
			EndTime:       req.StartTime.End(),
			Status:        StatusScheduled,
			Reason:        req.Reason,
			SeriesID:      &seriesID,
			CreatedBy:     req.CreatedBy,
		})
	}

	if err := s.appts.CreateBatch(ctx, appts); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, fmt.Errorf("recurring series not booked: %w", err)
		}
		return nil, err
	}

	for _, a := range appts {
		s.publish(ctx, "created", a)
	}
	return appts, nil
}

// AutoAllocate books the first free slot of the day, walking the catalog in
// order and skipping slots that overlap an active booking. When a candidate
// loses an insert race it re-fetches the booked set and keeps walking, so
// concurrent allocators converge on distinct slots.
func (s *Service) AutoAllocate(ctx context.Context, date time.Time, patientID uuid.UUID, createdBy string) (*Appointment, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	date = truncateToDay(date)

	booked, err := s.appts.ListByDate(ctx, date, ActiveStatuses)
	if err != nil {
		return nil, err
	}

	for {
		candidate, ok := firstFreeSlot(booked)
		if !ok {
			return nil, ErrNoFreeSlot
		}

		a := &Appointment{
			PatientID:     patientID,
			ScheduledDate: date,
			StartTime:     candidate.WithSeconds(),
			EndTime:       candidate.End().WithSeconds(),
			Status:        StatusScheduled,
			CreatedBy:     createdBy,
		}
		err := s.appts.Create(ctx, a)
		if err == nil {
			s.publish(ctx, "created", a)
			return a, nil
		}
		if !errors.Is(err, ErrSlotTaken) {
			return nil, err
		}

		// Lost the race for this slot; refresh and try the next one.
		booked, err = s.appts.ListByDate(ctx, date, ActiveStatuses)
		if err != nil {
			return nil, err
		}
	}
}

// firstFreeSlot returns the earliest catalog slot whose interval overlaps no
// active booking.
func firstFreeSlot(booked []*Appointment) (SlotTime, bool) {
	for _, candidate := range DailySlots() {
		candEnd := candidate.End()
		free := true
		for _, b := range booked {
			if Overlaps(candidate, candEnd, b.StartTime, b.EndTime) {
				free = false
				break
			}
		}
		if free {
			return candidate, true
		}
	}
	return SlotTime{}, false
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListByDate(ctx context.Context, date time.Time, statuses []string) ([]*Appointment, error) {
	return s.appts.ListByDate(ctx, truncateToDay(date), statuses)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByPatient(ctx, patientID, limit, offset)
}

// Reschedule moves an appointment to a new slot. The original slot is only
// released if the new one is claimed.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, start SlotTime) (*Appointment, error) {
	if err := validateCatalogSlot(start); err != nil {
		return nil, err
	}
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, a.Status)
	}

	a.ScheduledDate = truncateToDay(date)
	a.StartTime = start
	a.EndTime = start.End()
	if err := s.appts.Update(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, s.conflictFor(ctx, a.ScheduledDate, start)
		}
		return nil, err
	}

	s.publish(ctx, "updated", a)
	return a, nil
}

// Transition moves an appointment along its lifecycle.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	if err := s.appts.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	a.Status = to

	s.publish(ctx, "updated", a)
	return a, nil
}

func (s *Service) Arrive(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, id, StatusArrived)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, id, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, id, StatusCancelled)
}

func (s *Service) publish(ctx context.Context, action string, a *Appointment) {
	_ = s.publisher.Publish(ctx, realtime.ChangeEvent{
		Action: action,
		Topic:  appointmentsTopic,
		RowID:  a.ID.String(),
	})
}
