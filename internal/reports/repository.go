package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// reportDB defines the database interface needed by Repository.
type reportDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository runs the aggregate queries behind the financial report.
type Repository struct {
	db reportDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("reports: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db reportDB) *Repository {
	return &Repository{db: db}
}

// SumInvoices totals invoice amounts for a stored status with due_date in
// the inclusive period. Revenue and pending totals go through here.
func (r *Repository) SumInvoices(ctx context.Context, status string, p Period) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM invoices
		WHERE status = $1 AND due_date >= $2 AND due_date <= $3
	`, status, p.Start, p.End).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("reports: sum %s invoices: %w", status, err)
	}
	return total, nil
}

// SumOverdue totals pending invoices in the period whose due date has
// passed. Overdue is derived here, never read from a stored flag.
func (r *Repository) SumOverdue(ctx context.Context, p Period, today time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM invoices
		WHERE status = 'pending' AND due_date < $1
		  AND due_date >= $2 AND due_date <= $3
	`, dateOf(today), p.Start, p.End).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("reports: sum overdue invoices: %w", err)
	}
	return total, nil
}

// RevenueByPractitioner groups paid invoice amounts by the practitioner of
// the invoiced appointment. Unlike the period totals, rows are selected by
// paid_at falling inside the period's timestamp window.
func (r *Repository) RevenueByPractitioner(ctx context.Context, p Period) (map[string]int64, error) {
	window := p.TimestampWindow()
	rows, err := r.db.Query(ctx, `
		SELECT pr.name, COALESCE(SUM(i.amount_cents), 0)
		FROM invoices i
		JOIN appointments a ON a.id = i.appointment_id
		JOIN practitioners pr ON pr.id = a.practitioner_id
		WHERE i.status = 'paid' AND i.paid_at >= $1 AND i.paid_at < $2
		GROUP BY pr.name
	`, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("reports: revenue by practitioner: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var total int64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("reports: scan practitioner revenue: %w", err)
		}
		out[name] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reports: iterate practitioner revenue: %w", err)
	}
	return out, nil
}

// AppointmentCounts counts appointments scheduled inside the period.
func (r *Repository) AppointmentCounts(ctx context.Context, p Period) (total, completed, cancelled int64, err error) {
	window := p.TimestampWindow()
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2
	`, window.Start, window.End).Scan(&total, &completed, &cancelled)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("reports: appointment counts: %w", err)
	}
	return total, completed, cancelled, nil
}
