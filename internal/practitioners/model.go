// Package practitioners manages the clinic's care providers. CRM is the
// professional registration number and must be unique. Deleting a
// practitioner removes their appointments and detaches their medical
// records through the schema's cascade rules.
package practitioners

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Practitioner is a care provider who can be booked for appointments.
type Practitioner struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CRM       string    `json:"crm"`
	Specialty string    `json:"specialty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName renders the practitioner with their specialty, the form the
// calendar and reports use.
func (p *Practitioner) DisplayName() string {
	if p.Specialty == "" {
		return p.Name
	}
	return p.Name + " (" + p.Specialty + ")"
}

// CreatePractitionerRequest carries the fields a caller may set.
type CreatePractitionerRequest struct {
	Name      string `json:"name"`
	CRM       string `json:"crm"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Validate normalizes and checks the request in place.
func (r *CreatePractitionerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	r.CRM = strings.ToUpper(strings.TrimSpace(r.CRM))
	if r.CRM == "" {
		return domain.NewValidationError("crm", "is required")
	}
	r.Specialty = strings.TrimSpace(r.Specialty)
	if r.Specialty == "" {
		return domain.NewValidationError("specialty", "is required")
	}
	if r.Email != "" {
		r.Email = strings.ToLower(strings.TrimSpace(r.Email))
		if !emailPattern.MatchString(r.Email) {
			return domain.NewValidationError("email", "invalid format")
		}
	}
	return nil
}
