package triage

import (
	"sort"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/scheduling"
)

// BuildQueue derives the triage queue from a day's vitals records and
// appointments. Pure function: callers fetch, this orders.
//
// A patient with several records that day is represented by the first one
// chronologically recorded, so their queue position reflects when they were
// first seen rather than resetting on every re-measurement.
//
// The order is: priority score descending, then recorded-at ascending, then
// appointment start ascending with walk-ins after booked patients, then
// patient id — the last rung only exists to make the order total.
func BuildQueue(vitals []*VitalSignsRecord, appts []*scheduling.Appointment) []*QueueEntry {
	firstPerPatient := make(map[uuid.UUID]*VitalSignsRecord)
	for _, v := range vitals {
		if cur, ok := firstPerPatient[v.PatientID]; !ok || v.RecordedAt.Before(cur.RecordedAt) {
			firstPerPatient[v.PatientID] = v
		}
	}

	apptByPatient := make(map[uuid.UUID]*scheduling.Appointment)
	for _, a := range appts {
		if a.Status == scheduling.StatusCompleted {
			continue
		}
		if cur, ok := apptByPatient[a.PatientID]; !ok || a.StartTime.Before(cur.StartTime) {
			apptByPatient[a.PatientID] = a
		}
	}

	entries := make([]*QueueEntry, 0, len(firstPerPatient))
	for patientID, v := range firstPerPatient {
		score := Score(v)
		entries = append(entries, &QueueEntry{
			PatientID:     patientID,
			Vitals:        v,
			Appointment:   apptByPatient[patientID],
			PriorityScore: score,
			Priority:      Classify(score),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PriorityScore != b.PriorityScore {
			return a.PriorityScore > b.PriorityScore
		}
		if !a.Vitals.RecordedAt.Equal(b.Vitals.RecordedAt) {
			return a.Vitals.RecordedAt.Before(b.Vitals.RecordedAt)
		}
		switch {
		case a.Appointment != nil && b.Appointment != nil:
			if !a.Appointment.StartTime.Equal(b.Appointment.StartTime) {
				return a.Appointment.StartTime.Before(b.Appointment.StartTime)
			}
		case a.Appointment != nil:
			return true // booked before walk-in at equal rank
		case b.Appointment != nil:
			return false
		}
		return a.PatientID.String() < b.PatientID.String()
	})

	return entries
}
