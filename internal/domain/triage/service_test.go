package triage

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/scheduling"
)

// -- Mocks --

type mockVitalsRepo struct {
	records []*VitalSignsRecord
}

func (m *mockVitalsRepo) Create(_ context.Context, v *VitalSignsRecord) error {
	v.ID = uuid.New()
	m.records = append(m.records, v)
	return nil
}

func (m *mockVitalsRepo) ListByDate(_ context.Context, date time.Time) ([]*VitalSignsRecord, error) {
	y, mo, d := date.Date()
	var out []*VitalSignsRecord
	for _, v := range m.records {
		vy, vmo, vd := v.RecordedAt.Date()
		if vy == y && vmo == mo && vd == d {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out, nil
}

func (m *mockVitalsRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error) {
	var out []*VitalSignsRecord
	for _, v := range m.records {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out, len(out), nil
}

type mockApptSource struct {
	appts []*scheduling.Appointment
}

func (m *mockApptSource) ListByDate(_ context.Context, date time.Time, _ []string) ([]*scheduling.Appointment, error) {
	return m.appts, nil
}

// -- Tests --

func TestRecordVitals(t *testing.T) {
	repo := &mockVitalsRepo{}
	svc := NewService(repo, &mockApptSource{}, nil)

	v := &VitalSignsRecord{
		PatientID:   uuid.New(),
		Temperature: ptrFloat(37.0),
		Complaints:  ptrStr("headache"),
	}
	if err := svc.RecordVitals(context.Background(), v); err != nil {
		t.Fatalf("RecordVitals: %v", err)
	}
	if v.RecordedAt.IsZero() {
		t.Error("RecordedAt not defaulted")
	}
	if len(repo.records) != 1 {
		t.Errorf("store has %d records, want 1", len(repo.records))
	}
}

func TestRecordVitals_RequiresPatient(t *testing.T) {
	svc := NewService(&mockVitalsRepo{}, &mockApptSource{}, nil)
	if err := svc.RecordVitals(context.Background(), &VitalSignsRecord{}); err == nil {
		t.Error("accepted record without patient_id")
	}
}

func TestQueue_EndToEnd(t *testing.T) {
	repo := &mockVitalsRepo{}
	appts := &mockApptSource{}
	svc := NewService(repo, appts, nil)
	ctx := context.Background()
	day := at(t, "00:00")

	critical, walkIn, booked := uuid.New(), uuid.New(), uuid.New()

	for _, v := range []*VitalSignsRecord{
		{PatientID: walkIn, RecordedAt: at(t, "08:00")},
		{PatientID: booked, RecordedAt: at(t, "08:00")},
		{PatientID: critical, RecordedAt: at(t, "10:00"),
			Temperature: ptrFloat(40.0), OxygenSaturation: ptrInt(88)},
	} {
		if err := repo.Create(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
	appts.appts = []*scheduling.Appointment{
		apptAt(t, booked, "09:00", scheduling.StatusScheduled),
	}

	queue, err := svc.Queue(ctx, day)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("queue has %d entries, want 3", len(queue))
	}

	wantOrder := []uuid.UUID{critical, booked, walkIn}
	for i, want := range wantOrder {
		if queue[i].PatientID != want {
			t.Errorf("position %d: got patient %s, want %s", i, queue[i].PatientID, want)
		}
	}
	if queue[0].Priority != PriorityCritical {
		t.Errorf("top priority = %s, want Critical", queue[0].Priority)
	}
}
