package reports

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewRepositoryWithDB(mock)
}

func TestSumInvoicesFiltersByDueDate(t *testing.T) {
	mock, repo := newMockRepo(t)
	p := marchPeriod()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount_cents\), 0\) FROM invoices`).
		WithArgs("paid", p.Start, p.End).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(25000)))

	total, err := repo.SumInvoices(context.Background(), "paid", p)
	if err != nil {
		t.Fatalf("SumInvoices failed: %v", err)
	}
	if total != 25000 {
		t.Fatalf("total = %d, want 25000", total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSumOverdueUsesDerivedPredicate(t *testing.T) {
	mock, repo := newMockRepo(t)
	p := marchPeriod()
	today := time.Date(2026, 3, 20, 16, 45, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE status = 'pending' AND due_date < \$1`).
		WithArgs(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), p.Start, p.End).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(12000)))

	total, err := repo.SumOverdue(context.Background(), p, today)
	if err != nil {
		t.Fatalf("SumOverdue failed: %v", err)
	}
	if total != 12000 {
		t.Fatalf("total = %d, want 12000", total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevenueByPractitionerFiltersByPaidAt(t *testing.T) {
	mock, repo := newMockRepo(t)
	p := marchPeriod()
	window := p.TimestampWindow()

	rows := pgxmock.NewRows([]string{"name", "sum"}).
		AddRow("Dr. Lima", int64(25000)).
		AddRow("Dra. Costa", int64(18000))

	// The breakdown filters on paid_at inside the expanded window, not on
	// due_date like the period totals.
	mock.ExpectQuery(`WHERE i.status = 'paid' AND i.paid_at >= \$1 AND i.paid_at < \$2`).
		WithArgs(window.Start, window.End).
		WillReturnRows(rows)

	got, err := repo.RevenueByPractitioner(context.Background(), p)
	if err != nil {
		t.Fatalf("RevenueByPractitioner failed: %v", err)
	}
	if got["Dr. Lima"] != 25000 || got["Dra. Costa"] != 18000 {
		t.Fatalf("unexpected breakdown: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppointmentCounts(t *testing.T) {
	mock, repo := newMockRepo(t)
	p := marchPeriod()
	window := p.TimestampWindow()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(window.Start, window.End).
		WillReturnRows(pgxmock.NewRows([]string{"total", "completed", "cancelled"}).
			AddRow(int64(12), int64(9), int64(2)))

	total, completed, cancelled, err := repo.AppointmentCounts(context.Background(), p)
	if err != nil {
		t.Fatalf("AppointmentCounts failed: %v", err)
	}
	if total != 12 || completed != 9 || cancelled != 2 {
		t.Fatalf("counts = %d/%d/%d", total, completed, cancelled)
	}
}
