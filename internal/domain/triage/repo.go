package triage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VitalsRepository persists vital-signs records. The table is append-only;
// there is deliberately no update or delete.
type VitalsRepository interface {
	Create(ctx context.Context, v *VitalSignsRecord) error
	// ListByDate returns every record whose recorded_at falls on the given
	// calendar date, ordered by recorded_at ascending.
	ListByDate(ctx context.Context, date time.Time) ([]*VitalSignsRecord, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error)
}
