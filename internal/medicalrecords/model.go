// Package medicalrecords stores clinical notes for patients. A record
// belongs to a patient and may reference the appointment and practitioner
// it came out of; both references survive as null when the appointment or
// practitioner is deleted.
package medicalrecords

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/domain"
)

// Record is a single clinical entry for a patient.
type Record struct {
	ID             uuid.UUID  `json:"id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	PractitionerID *uuid.UUID `json:"practitioner_id,omitempty"`
	AppointmentID  *uuid.UUID `json:"appointment_id,omitempty"`
	Diagnosis      string     `json:"diagnosis"`
	Prescription   string     `json:"prescription,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	RecordedAt     time.Time  `json:"recorded_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Filled from joins for list views.
	PatientName      string `json:"patient_name,omitempty"`
	PractitionerName string `json:"practitioner_name,omitempty"`
}

// CreateRecordRequest carries the fields a caller may set.
type CreateRecordRequest struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	PractitionerID *uuid.UUID `json:"practitioner_id,omitempty"`
	AppointmentID  *uuid.UUID `json:"appointment_id,omitempty"`
	Diagnosis      string     `json:"diagnosis"`
	Prescription   string     `json:"prescription,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	RecordedAt     *time.Time `json:"recorded_at,omitempty"`
}

// Validate checks the request in place.
func (r *CreateRecordRequest) Validate() error {
	if r.PatientID == uuid.Nil {
		return domain.NewValidationError("patient_id", "is required")
	}
	r.Diagnosis = strings.TrimSpace(r.Diagnosis)
	if r.Diagnosis == "" {
		return domain.NewValidationError("diagnosis", "is required")
	}
	return nil
}

// UpdateRecordRequest carries the editable fields. Nil fields keep the
// stored value; the patient reference is immutable.
type UpdateRecordRequest struct {
	Diagnosis    *string    `json:"diagnosis,omitempty"`
	Prescription *string    `json:"prescription,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	RecordedAt   *time.Time `json:"recorded_at,omitempty"`
}

// Validate checks the request in place.
func (r *UpdateRecordRequest) Validate() error {
	if r.Diagnosis != nil {
		trimmed := strings.TrimSpace(*r.Diagnosis)
		if trimmed == "" {
			return domain.NewValidationError("diagnosis", "is required")
		}
		r.Diagnosis = &trimmed
	}
	return nil
}
