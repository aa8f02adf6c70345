package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

// mockApptRepo enforces the same slot uniqueness the partial index does:
// one active appointment per (date, start minute).
type mockApptRepo struct {
	appts     map[uuid.UUID]*Appointment
	slotIndex map[string]uuid.UUID

	// beforeCreate, when set, runs once before the next Create. Used to
	// slip in a concurrent winner between a caller's read and its write.
	beforeCreate func(m *mockApptRepo)
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{
		appts:     make(map[uuid.UUID]*Appointment),
		slotIndex: make(map[string]uuid.UUID),
	}
}

func slotKey(date time.Time, start SlotTime) string {
	return fmt.Sprintf("%s|%d", date.Format("2006-01-02"), start.Minutes())
}

func isActive(status string) bool {
	return status == StatusScheduled || status == StatusArrived
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	if m.beforeCreate != nil {
		hook := m.beforeCreate
		m.beforeCreate = nil
		hook(m)
	}
	key := slotKey(a.ScheduledDate, a.StartTime)
	if _, taken := m.slotIndex[key]; taken {
		return ErrSlotTaken
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = a
	m.slotIndex[key] = a.ID
	return nil
}

func (m *mockApptRepo) CreateBatch(_ context.Context, appts []*Appointment) error {
	for _, a := range appts {
		if _, taken := m.slotIndex[slotKey(a.ScheduledDate, a.StartTime)]; taken {
			return fmt.Errorf("occurrence on %s: %w",
				a.ScheduledDate.Format("2006-01-02"), ErrSlotTaken)
		}
	}
	for _, a := range appts {
		a.ID = uuid.New()
		m.appts[a.ID] = a
		m.slotIndex[slotKey(a.ScheduledDate, a.StartTime)] = a.ID
	}
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockApptRepo) Update(_ context.Context, a *Appointment) error {
	existing, ok := m.appts[a.ID]
	if !ok {
		return ErrNotFound
	}
	newKey := slotKey(a.ScheduledDate, a.StartTime)
	oldKey := slotKey(existing.ScheduledDate, existing.StartTime)
	if newKey != oldKey {
		if _, taken := m.slotIndex[newKey]; taken {
			return ErrSlotTaken
		}
		delete(m.slotIndex, oldKey)
		m.slotIndex[newKey] = a.ID
	}
	copied := *a
	m.appts[a.ID] = &copied
	return nil
}

func (m *mockApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	if !isActive(status) {
		delete(m.slotIndex, slotKey(a.ScheduledDate, a.StartTime))
	}
	return nil
}

func (m *mockApptRepo) ListByDate(_ context.Context, date time.Time, statuses []string) ([]*Appointment, error) {
	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*Appointment
	for _, a := range m.appts {
		if !a.ScheduledDate.Equal(date) {
			continue
		}
		if len(statuses) > 0 && !want[a.Status] {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Minutes() < out[j].StartTime.Minutes()
	})
	return out, nil
}

func (m *mockApptRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

// -- Tests --

func newTestService() (*Service, *mockApptRepo) {
	repo := newMockApptRepo()
	return NewService(repo, nil), repo
}

func booking(t *testing.T, day, start string) BookingRequest {
	t.Helper()
	d, err := parseDate(day)
	if err != nil {
		t.Fatal(err)
	}
	return BookingRequest{
		PatientID: uuid.New(),
		Date:      d,
		StartTime: mustSlot(t, start),
		CreatedBy: "nurse-1",
	}
}

func TestBook_Success(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00"))
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %s, want scheduled", a.Status)
	}
	if a.EndTime.String() != "09:15" {
		t.Errorf("end = %s, want 09:15", a.EndTime)
	}
}

func TestBook_RejectsNonCatalogStart(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, start := range []string{"07:45", "09:07", "17:00"} {
		if _, err := svc.Book(ctx, booking(t, "2025-06-02", start)); err == nil {
			t.Errorf("Book accepted off-catalog start %s", start)
		}
	}
}

func TestBook_ConflictCarriesRefreshedBookedSlots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00")); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00"))
	var conflict *SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want SlotConflictError", err)
	}
	if !errors.Is(err, ErrSlotTaken) {
		t.Error("conflict should unwrap to ErrSlotTaken")
	}
	if len(conflict.BookedSlots) != 1 || conflict.BookedSlots[0].String() != "09:00" {
		t.Errorf("BookedSlots = %v, want [09:00]", conflict.BookedSlots)
	}
}

func TestBook_MixedFormsShareTheSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Book(ctx, booking(t, "2025-06-02", "09:15:00")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Book(ctx, booking(t, "2025-06-02", "09:15")); !errors.Is(err, ErrSlotTaken) {
		t.Errorf("HH:MM booking did not conflict with HH:MM:SS booking: %v", err)
	}
}

func TestAutoAllocate_SkipsBookedSlots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	day, _ := parseDate("2025-06-02")

	for _, start := range []string{"08:00", "08:15"} {
		if _, err := svc.Book(ctx, booking(t, "2025-06-02", start)); err != nil {
			t.Fatal(err)
		}
	}

	a, err := svc.AutoAllocate(ctx, day, uuid.New(), "registrar-1")
	if err != nil {
		t.Fatalf("AutoAllocate: %v", err)
	}
	if a.StartTime.String() != "08:30:00" {
		t.Errorf("allocated %s, want 08:30:00", a.StartTime)
	}
	if a.EndTime.String() != "08:45:00" {
		t.Errorf("end = %s, want 08:45:00", a.EndTime)
	}
}

func TestAutoAllocate_AdjacentSlotDoesNotBlock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	day, _ := parseDate("2025-06-02")

	if _, err := svc.Book(ctx, booking(t, "2025-06-02", "08:00")); err != nil {
		t.Fatal(err)
	}

	// 08:15 touches the 08:00–08:15 booking at the boundary only.
	a, err := svc.AutoAllocate(ctx, day, uuid.New(), "registrar-1")
	if err != nil {
		t.Fatal(err)
	}
	if a.StartTime.Minutes() != mustSlot(t, "08:15").Minutes() {
		t.Errorf("allocated %s, want 08:15", a.StartTime)
	}
}

func TestAutoAllocate_FullDay(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	day, _ := parseDate("2025-06-02")

	for _, slot := range DailySlots() {
		req := booking(t, "2025-06-02", slot.String())
		if _, err := svc.Book(ctx, req); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := svc.AutoAllocate(ctx, day, uuid.New(), "registrar-1"); !errors.Is(err, ErrNoFreeSlot) {
		t.Errorf("got %v, want ErrNoFreeSlot", err)
	}
}

func TestAutoAllocate_RetriesAfterLostRace(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	day, _ := parseDate("2025-06-02")

	// A concurrent allocator wins 08:00 between our read and our write.
	repo.beforeCreate = func(m *mockApptRepo) {
		winner := &Appointment{
			ID:            uuid.New(),
			PatientID:     uuid.New(),
			ScheduledDate: day,
			StartTime:     mustSlot(t, "08:00:00"),
			EndTime:       mustSlot(t, "08:15:00"),
			Status:        StatusScheduled,
		}
		m.appts[winner.ID] = winner
		m.slotIndex[slotKey(day, winner.StartTime)] = winner.ID
	}

	a, err := svc.AutoAllocate(ctx, day, uuid.New(), "registrar-1")
	if err != nil {
		t.Fatalf("AutoAllocate: %v", err)
	}
	if a.StartTime.Minutes() != mustSlot(t, "08:15").Minutes() {
		t.Errorf("allocated %s after lost race, want 08:15", a.StartTime)
	}
	if len(repo.appts) != 2 {
		t.Errorf("store has %d appointments, want 2", len(repo.appts))
	}
}

func TestBookRecurring_AllOrNothing(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Middle occurrence collides.
	if _, err := svc.Book(ctx, booking(t, "2025-01-08", "09:00")); err != nil {
		t.Fatal(err)
	}

	req := RecurringRequest{
		BookingRequest: booking(t, "2025-01-01", "09:00"),
		Frequency:      FrequencyWeekly,
		EndDate:        date(2025, 1, 15),
	}
	_, err := svc.BookRecurring(ctx, req)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("got %v, want ErrSlotTaken", err)
	}
	if len(repo.appts) != 1 {
		t.Errorf("store has %d appointments after failed series, want 1", len(repo.appts))
	}
}

func TestBookRecurring_SeriesSharesID(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := RecurringRequest{
		BookingRequest: booking(t, "2025-01-01", "10:00"),
		Frequency:      FrequencyWeekly,
		EndDate:        date(2025, 1, 15),
	}
	appts, err := svc.BookRecurring(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if len(appts) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(appts))
	}
	for _, a := range appts {
		if a.SeriesID == nil || *a.SeriesID != *appts[0].SeriesID {
			t.Error("occurrences do not share a series id")
		}
	}
}

func TestTransition_Lifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Arrive(ctx, a.ID); err != nil {
		t.Fatalf("Arrive: %v", err)
	}
	if _, err := svc.Complete(ctx, a.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.Cancel(ctx, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Cancel after Complete = %v, want ErrInvalidTransition", err)
	}
}

func TestTransition_CompleteRequiresArrival(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Complete(ctx, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Complete from scheduled = %v, want ErrInvalidTransition", err)
	}
}

func TestCancel_ReleasesSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00")); err != nil {
		t.Errorf("rebooking a cancelled slot failed: %v", err)
	}
}

func TestReschedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Book(ctx, booking(t, "2025-06-02", "10:00")); err != nil {
		t.Fatal(err)
	}

	// Target taken: conflict, original slot retained.
	if _, err := svc.Reschedule(ctx, a.ID, a.ScheduledDate, mustSlot(t, "10:00")); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("got %v, want conflict", err)
	}
	kept, err := svc.Get(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kept.StartTime.String() != "09:00" {
		t.Errorf("original slot lost on failed reschedule: %s", kept.StartTime)
	}

	// Free target: moved.
	moved, err := svc.Reschedule(ctx, a.ID, a.ScheduledDate, mustSlot(t, "11:00"))
	if err != nil {
		t.Fatal(err)
	}
	if moved.StartTime.String() != "11:00" || moved.EndTime.String() != "11:15" {
		t.Errorf("moved to %s-%s, want 11:00-11:15", moved.StartTime, moved.EndTime)
	}
}

func TestAvailableSlots(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	day, _ := parseDate("2025-06-02")

	if _, err := svc.Book(ctx, booking(t, "2025-06-02", "09:00")); err != nil {
		t.Fatal(err)
	}

	slots, err := svc.AvailableSlots(ctx, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 36 {
		t.Fatalf("got %d slots, want 36", len(slots))
	}
	for _, s := range slots {
		wantAvailable := s.Start.String() != "09:00"
		if s.Available != wantAvailable {
			t.Errorf("slot %s available = %v, want %v", s.Start, s.Available, wantAvailable)
		}
	}
}
