package triage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type vitalsRepoPG struct{ pool *pgxpool.Pool }

func NewVitalsRepoPG(pool *pgxpool.Pool) VitalsRepository {
	return &vitalsRepoPG{pool: pool}
}

func (r *vitalsRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const vitalsCols = `id, patient_id, temperature, heart_rate,
	blood_pressure_sys, blood_pressure_dia, oxygen_saturation,
	weight, complaints, recorded_by, recorded_at`

func scanVitals(row pgx.Row) (*VitalSignsRecord, error) {
	var v VitalSignsRecord
	err := row.Scan(&v.ID, &v.PatientID, &v.Temperature, &v.HeartRate,
		&v.BloodPressureSys, &v.BloodPressureDia, &v.OxygenSaturation,
		&v.Weight, &v.Complaints, &v.RecordedBy, &v.RecordedAt)
	return &v, err
}

func (r *vitalsRepoPG) Create(ctx context.Context, v *VitalSignsRecord) error {
	v.ID = uuid.New()
	if v.RecordedAt.IsZero() {
		v.RecordedAt = time.Now()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vital_signs (id, patient_id, temperature, heart_rate,
			blood_pressure_sys, blood_pressure_dia, oxygen_saturation,
			weight, complaints, recorded_by, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		v.ID, v.PatientID, v.Temperature, v.HeartRate,
		v.BloodPressureSys, v.BloodPressureDia, v.OxygenSaturation,
		v.Weight, v.Complaints, v.RecordedBy, v.RecordedAt)
	return err
}

func (r *vitalsRepoPG) ListByDate(ctx context.Context, date time.Time) ([]*VitalSignsRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+vitalsCols+` FROM vital_signs
		WHERE recorded_at::date = $1
		ORDER BY recorded_at ASC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*VitalSignsRecord
	for rows.Next() {
		v, err := scanVitals(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (r *vitalsRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSignsRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM vital_signs WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+vitalsCols+` FROM vital_signs WHERE patient_id = $1
		ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*VitalSignsRecord
	for rows.Next() {
		v, err := scanVitals(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}
