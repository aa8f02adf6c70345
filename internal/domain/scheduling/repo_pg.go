package scheduling

import (
	"context"
	"errors"
	"fmt"
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

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, scheduled_date,
	start_time::text, end_time::text, status, reason, series_id,
	created_by, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var startStr, endStr string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledDate,
		&startStr, &endStr, &a.Status, &a.Reason, &a.SeriesID,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.StartTime, err = ParseSlotTime(startStr); err != nil {
		return nil, fmt.Errorf("corrupt start_time %q: %w", startStr, err)
	}
	if a.EndTime, err = ParseSlotTime(endStr); err != nil {
		return nil, fmt.Errorf("corrupt end_time %q: %w", endStr, err)
	}
	return &a, nil
}

// isUniqueViolation reports whether err is the SQLSTATE 23505 raised by the
// partial unique index over active appointment slots.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const insertApptSQL = `
	INSERT INTO appointment (id, patient_id, doctor_id, scheduled_date,
		start_time, end_time, status, reason, series_id, created_by)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, insertApptSQL,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledDate,
		a.StartTime.Canonical(), a.EndTime.Canonical(), a.Status,
		a.Reason, a.SeriesID, a.CreatedBy)
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

func (r *appointmentRepoPG) CreateBatch(ctx context.Context, appts []*Appointment) error {
	var (
		tx  pgx.Tx
		err error
	)
	if c := db.ConnFromContext(ctx); c != nil {
		tx, err = c.Begin(ctx)
	} else {
		tx, err = r.pool.Begin(ctx)
	}
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, a := range appts {
		a.ID = uuid.New()
		if _, err := tx.Exec(ctx, insertApptSQL,
			a.ID, a.PatientID, a.DoctorID, a.ScheduledDate,
			a.StartTime.Canonical(), a.EndTime.Canonical(), a.Status,
			a.Reason, a.SeriesID, a.CreatedBy); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("occurrence on %s: %w",
					a.ScheduledDate.Format("2006-01-02"), ErrSlotTaken)
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET doctor_id=$2, scheduled_date=$3, start_time=$4,
			end_time=$5, status=$6, reason=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.DoctorID, a.ScheduledDate, a.StartTime.Canonical(),
		a.EndTime.Canonical(), a.Status, a.Reason)
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) ListByDate(ctx context.Context, date time.Time, statuses []string) ([]*Appointment, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE scheduled_date = $1`
	args := []interface{}{date}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, statuses)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment WHERE patient_id = $1
		ORDER BY scheduled_date DESC, start_time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
