// Package invoices owns billing records and their lifecycle. "Overdue" is a
// derived classification of a pending invoice whose due date has passed; it
// is never written to storage, so the stored status can not drift from the
// passage of time.
package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/domain"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every valid invoice status.
var AllStatuses = []Status{StatusPending, StatusPaid, StatusOverdue, StatusCancelled}

// ParseStatus validates enum membership.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", domain.NewValidationError("status", "unknown status "+s)
}

// Invoice is a billing record for a patient, optionally tied to a completed
// appointment. Amounts are integer cents.
type Invoice struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	AmountCents   int64      `json:"amount_cents"`
	Status        Status     `json:"status"`
	DueDate       time.Time  `json:"due_date"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Description   string     `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Populated on reads that join the patient row.
	PatientName string `json:"patient_name,omitempty"`
}

// OverdueAt reports whether the invoice counts as overdue on the given day:
// still pending with a due date strictly before it. A paid or cancelled
// invoice is never overdue, whatever its due date.
func (i *Invoice) OverdueAt(today time.Time) bool {
	if i.Status != StatusPending {
		return false
	}
	due := dateOf(i.DueDate)
	return due.Before(dateOf(today))
}

// Overdue reports whether the invoice is overdue right now.
func (i *Invoice) Overdue() bool {
	return i.OverdueAt(time.Now())
}

// Validate checks field-level invariants.
func (i *Invoice) Validate() error {
	if i.PatientID == uuid.Nil {
		return domain.NewValidationError("patient_id", "is required")
	}
	if i.AmountCents <= 0 {
		return domain.NewValidationError("amount_cents", "must be greater than 0")
	}
	if i.DueDate.IsZero() {
		return domain.NewValidationError("due_date", "is required")
	}
	if _, err := ParseStatus(string(i.Status)); err != nil {
		return err
	}
	// paid_at is set exactly when the invoice is paid.
	if i.Status == StatusPaid && i.PaidAt == nil {
		return domain.NewValidationError("paid_at", "is required for a paid invoice")
	}
	if i.Status != StatusPaid && i.PaidAt != nil {
		return domain.NewValidationError("paid_at", "must be empty unless the invoice is paid")
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
