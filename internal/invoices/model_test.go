package invoices

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var today = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func validInvoice() Invoice {
	return Invoice{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		AmountCents: 25000,
		Status:      StatusPending,
		DueDate:     today.AddDate(0, 0, 7),
	}
}

func TestOverdueDerivation(t *testing.T) {
	yesterday := today.AddDate(0, 0, -1)

	inv := validInvoice()
	inv.DueDate = yesterday
	if !inv.OverdueAt(today) {
		t.Fatal("pending invoice due yesterday must be overdue")
	}

	// The same invoice marked paid is never overdue, whatever its due date.
	paidAt := today
	inv.Status = StatusPaid
	inv.PaidAt = &paidAt
	if inv.OverdueAt(today) {
		t.Fatal("paid invoice must never be overdue")
	}

	inv.Status = StatusCancelled
	inv.PaidAt = nil
	if inv.OverdueAt(today) {
		t.Fatal("cancelled invoice must never be overdue")
	}
}

func TestOverdueBoundary(t *testing.T) {
	inv := validInvoice()

	// Due today: not yet overdue.
	inv.DueDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if inv.OverdueAt(today) {
		t.Fatal("invoice due today is not overdue")
	}

	// Due one day earlier: overdue, independent of the time of day.
	inv.DueDate = time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)
	if !inv.OverdueAt(today) {
		t.Fatal("invoice due before today is overdue")
	}
}

func TestParseStatus(t *testing.T) {
	for _, st := range AllStatuses {
		if _, err := ParseStatus(string(st)); err != nil {
			t.Fatalf("ParseStatus(%q) returned error: %v", st, err)
		}
	}
	if _, err := ParseStatus("refunded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestValidate(t *testing.T) {
	inv := validInvoice()
	if err := inv.Validate(); err != nil {
		t.Fatalf("valid invoice rejected: %v", err)
	}

	inv = validInvoice()
	inv.AmountCents = 0
	if err := inv.Validate(); err == nil {
		t.Fatal("zero amount must be rejected")
	}
	inv.AmountCents = -100
	if err := inv.Validate(); err == nil {
		t.Fatal("negative amount must be rejected")
	}

	inv = validInvoice()
	inv.DueDate = time.Time{}
	if err := inv.Validate(); err == nil {
		t.Fatal("missing due date must be rejected")
	}

	inv = validInvoice()
	inv.PatientID = uuid.Nil
	if err := inv.Validate(); err == nil {
		t.Fatal("missing patient must be rejected")
	}
}

func TestValidatePaidAtInvariant(t *testing.T) {
	// status = paid requires paid_at.
	inv := validInvoice()
	inv.Status = StatusPaid
	if err := inv.Validate(); err == nil {
		t.Fatal("paid invoice without paid_at must be rejected")
	}
	paidAt := today
	inv.PaidAt = &paidAt
	if err := inv.Validate(); err != nil {
		t.Fatalf("paid invoice with paid_at rejected: %v", err)
	}

	// Any other status requires a null paid_at.
	inv.Status = StatusPending
	if err := inv.Validate(); err == nil {
		t.Fatal("pending invoice with paid_at must be rejected")
	}
}
