// Package appointments owns the appointment model, its status lifecycle and
// the booking scheduler. Appointments are never written directly: every
// create or time change goes through the Scheduler so the per-practitioner
// overlap invariant holds.
package appointments

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/domain"
	"github.com/clinicdesk/clinic-platform/internal/timerange"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// AllStatuses lists every valid appointment status.
var AllStatuses = []Status{
	StatusScheduled,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

// ParseStatus validates enum membership.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", domain.NewValidationError("status", "unknown status "+s)
}

// CanTransition is the transition-validation hook for status changes. The
// current model allows any valid status to move to any other; tightening the
// lifecycle later only requires changing this function, not the data model.
func CanTransition(from, to Status) bool {
	_, errFrom := ParseStatus(string(from))
	_, errTo := ParseStatus(string(to))
	return errFrom == nil && errTo == nil
}

// Blocking reports whether an appointment in this status occupies its
// practitioner's time. Cancelled and no-show appointments release the slot.
func (s Status) Blocking() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// Appointment is a booked visit for a patient with a practitioner.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	PractitionerID  uuid.UUID  `json:"practitioner_id"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Populated on reads that join the owning rows.
	PatientName      string `json:"patient_name,omitempty"`
	PractitionerName string `json:"practitioner_name,omitempty"`
}

// EndTime is the derived end of the appointment.
func (a *Appointment) EndTime() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Range returns the half-open interval the appointment occupies.
func (a *Appointment) Range() timerange.Range {
	return timerange.New(a.ScheduledAt, time.Duration(a.DurationMinutes)*time.Minute)
}

// Validate checks field-level invariants common to create and update.
func (a *Appointment) Validate() error {
	if a.PatientID == uuid.Nil {
		return domain.NewValidationError("patient_id", "is required")
	}
	if a.PractitionerID == uuid.Nil {
		return domain.NewValidationError("practitioner_id", "is required")
	}
	if a.ScheduledAt.IsZero() {
		return domain.NewValidationError("scheduled_at", "is required")
	}
	if a.DurationMinutes <= 0 {
		return domain.NewValidationError("duration_minutes", "must be greater than 0")
	}
	if _, err := ParseStatus(string(a.Status)); err != nil {
		return err
	}
	return nil
}
