package billing

import (
	"context"
	"errors"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const billCols = `id, patient_id, visit_id, lab_order_id, amount, amount_paid,
	status, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.PatientID, &b.VisitID, &b.LabOrderID,
		&b.Amount, &b.AmountPaid, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, patient_id, visit_id, lab_order_id, amount,
			amount_paid, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.PatientID, b.VisitID, b.LabOrderID, b.Amount, b.AmountPaid, b.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx,
		`SELECT `+billCols+` FROM bill WHERE id = $1`, id))
}

func (r *repoPG) GetByLabOrder(ctx context.Context, orderID uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx,
		`SELECT `+billCols+` FROM bill WHERE lab_order_id = $1`, orderID))
}

func (r *repoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx,
		`SELECT `+billCols+` FROM bill WHERE visit_id = $1`, visitID))
}

func (r *repoPG) Update(ctx context.Context, b *Bill) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET amount=$2, amount_paid=$3, status=$4, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Amount, b.AmountPaid, b.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) AddItem(ctx context.Context, item *BillItem) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_item (id, bill_id, description, quantity, unit_price, amount)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		item.ID, item.BillID, item.Description, item.Quantity, item.UnitPrice, item.Amount)
	return err
}

func (r *repoPG) ListItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, bill_id, description, quantity, unit_price, amount, created_at
		FROM bill_item WHERE bill_id = $1 ORDER BY created_at ASC`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.Description, &it.Quantity,
			&it.UnitPrice, &it.Amount, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bill WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+billCols+` FROM bill WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}
