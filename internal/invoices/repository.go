package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-platform/internal/storage"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides pgx-backed persistence for invoices.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("invoices: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

var invoiceConstraintFields = map[string]string{
	"invoices_patient_id_fkey":     "patient_id",
	"invoices_appointment_id_fkey": "appointment_id",
	"invoices_amount_check":        "amount_cents",
}

const invoiceColumns = `
	i.id, i.patient_id, i.appointment_id, i.amount_cents, i.status,
	i.due_date, i.paid_at, i.description, i.created_at, i.updated_at, p.name
`

const invoiceFrom = `
	FROM invoices i
	JOIN patients p ON p.id = i.patient_id
`

// Filter narrows invoice listings. Status accepts pending, paid, overdue or
// cancelled; overdue expands to the derived predicate over pending rows.
type Filter struct {
	PatientID *uuid.UUID
	Status    Status

	// PeriodStart/PeriodEnd select rows whose due_date falls in the
	// inclusive calendar-date range.
	PeriodStart *time.Time
	PeriodEnd   *time.Time

	Now time.Time
}

func (f Filter) whereClause() (string, []any) {
	var clauses []string
	var args []any

	add := func(expr string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			expr = strings.Replace(expr, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, expr)
	}

	if f.PatientID != nil {
		add("i.patient_id = ?", *f.PatientID)
	}
	if f.PeriodStart != nil && f.PeriodEnd != nil {
		add("i.due_date >= ? AND i.due_date <= ?", dateOf(*f.PeriodStart), dateOf(*f.PeriodEnd))
	}
	switch f.Status {
	case StatusOverdue:
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		add("i.status = 'pending' AND i.due_date < ?", dateOf(now))
	case "":
		// No status constraint.
	default:
		add("i.status = ?", f.Status)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Create inserts a new invoice.
func (r *Repository) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO invoices (id, patient_id, appointment_id, amount_cents, status, due_date, paid_at, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, inv.ID, inv.PatientID, inv.AppointmentID, inv.AmountCents, inv.Status, inv.DueDate, inv.PaidAt, inv.Description)
	if err := row.Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "invoice", inv.ID.String(), invoiceConstraintFields)
	}
	return inv, nil
}

// GetByID fetches a single invoice with the patient name joined.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT`+invoiceColumns+invoiceFrom+`WHERE i.id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, storage.MapError(err, "invoice", id.String(), nil)
	}
	return inv, nil
}

// List returns invoices matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Invoice, error) {
	where, args := filter.whereClause()
	rows, err := r.db.Query(ctx, `SELECT`+invoiceColumns+invoiceFrom+where+` ORDER BY i.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// ListForExport returns invoices due in the period ordered by due date, the
// order the financial export contract requires.
func (r *Repository) ListForExport(ctx context.Context, periodStart, periodEnd time.Time) ([]Invoice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+invoiceColumns+invoiceFrom+`WHERE i.due_date >= $1 AND i.due_date <= $2 ORDER BY i.due_date`,
		dateOf(periodStart), dateOf(periodEnd))
	if err != nil {
		return nil, fmt.Errorf("invoices: list for export: %w", err)
	}
	defer rows.Close()
	return collectInvoices(rows)
}

// Update reads the current row FOR UPDATE, applies the caller's merge, and
// writes the result back inside one transaction. The row lock serializes
// concurrent lifecycle edits, so a payment committing between another
// caller's read and write can not be reverted.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, merge func(*Invoice) error) (*Invoice, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("invoices: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT id, patient_id, appointment_id, amount_cents, status, due_date, paid_at, description, created_at, updated_at
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`, id)
	var inv Invoice
	if err := row.Scan(
		&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.AmountCents, &inv.Status,
		&inv.DueDate, &inv.PaidAt, &inv.Description, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, storage.MapError(err, "invoice", id.String(), nil)
	}

	if merge != nil {
		if err := merge(&inv); err != nil {
			return nil, err
		}
	}

	row = tx.QueryRow(ctx, `
		UPDATE invoices
		SET patient_id = $2, appointment_id = $3, amount_cents = $4, status = $5,
		    due_date = $6, paid_at = $7, description = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, inv.ID, inv.PatientID, inv.AppointmentID, inv.AmountCents, inv.Status, inv.DueDate, inv.PaidAt, inv.Description)
	if err := row.Scan(&inv.UpdatedAt); err != nil {
		return nil, storage.MapError(err, "invoice", inv.ID.String(), invoiceConstraintFields)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("invoices: commit: %w", err)
	}
	return &inv, nil
}

// MarkPaid sets the invoice paid, stamping paid_at. Calling it on an already
// paid invoice simply refreshes paid_at.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE invoices
		SET status = 'paid', paid_at = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, patient_id, appointment_id, amount_cents, status, due_date, paid_at, description, created_at, updated_at
	`, id, paidAt)
	var inv Invoice
	if err := row.Scan(
		&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.AmountCents, &inv.Status,
		&inv.DueDate, &inv.PaidAt, &inv.Description, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, storage.MapError(err, "invoice", id.String(), nil)
	}
	return &inv, nil
}

// Delete removes an invoice.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("invoices: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.MapError(pgx.ErrNoRows, "invoice", id.String(), nil)
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	if err := row.Scan(
		&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.AmountCents, &inv.Status,
		&inv.DueDate, &inv.PaidAt, &inv.Description, &inv.CreatedAt, &inv.UpdatedAt, &inv.PatientName,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func collectInvoices(rows pgx.Rows) ([]Invoice, error) {
	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(
			&inv.ID, &inv.PatientID, &inv.AppointmentID, &inv.AmountCents, &inv.Status,
			&inv.DueDate, &inv.PaidAt, &inv.Description, &inv.CreatedAt, &inv.UpdatedAt, &inv.PatientName,
		); err != nil {
			return nil, fmt.Errorf("invoices: scan row: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoices: iterate rows: %w", err)
	}
	return out, nil
}
