// Package patients manages patient records. A patient exclusively owns its
// appointments, invoices and medical records: deleting the patient removes
// them all through the schema's cascade rules.
package patients

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/domain"
)

var (
	cpfPattern   = regexp.MustCompile(`^\d{3}\.?\d{3}\.?\d{3}-?\d{2}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonDigits    = regexp.MustCompile(`[^\d]`)
)

// Patient is a person receiving care. CPF is the unique national ID.
type Patient struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CPF       string     `json:"cpf"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Address   string     `json:"address,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FormattedCPF renders the stored digits as 000.000.000-00.
func (p *Patient) FormattedCPF() string {
	if len(p.CPF) != 11 {
		return p.CPF
	}
	return fmt.Sprintf("%s.%s.%s-%s", p.CPF[0:3], p.CPF[3:6], p.CPF[6:9], p.CPF[9:11])
}

// Age returns the patient's age in whole years at now, or nil when the
// birth date is unknown.
func (p *Patient) Age(now time.Time) *int {
	if p.BirthDate == nil {
		return nil
	}
	age := now.Year() - p.BirthDate.Year()
	anniversary := time.Date(now.Year(), p.BirthDate.Month(), p.BirthDate.Day(), 0, 0, 0, 0, time.UTC)
	if now.Before(anniversary) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return &age
}

// NormalizeCPF strips punctuation, keeping digits only.
func NormalizeCPF(cpf string) string {
	return nonDigits.ReplaceAllString(cpf, "")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreatePatientRequest carries the fields a caller may set.
type CreatePatientRequest struct {
	Name      string     `json:"name"`
	CPF       string     `json:"cpf"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	Address   string     `json:"address,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Validate normalizes and checks the request in place.
func (r *CreatePatientRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	cpf := strings.TrimSpace(r.CPF)
	if cpf == "" {
		return domain.NewValidationError("cpf", "is required")
	}
	if !cpfPattern.MatchString(cpf) {
		return domain.NewValidationError("cpf", "invalid format")
	}
	r.CPF = NormalizeCPF(cpf)
	if r.Email != "" {
		r.Email = NormalizeEmail(r.Email)
		if !emailPattern.MatchString(r.Email) {
			return domain.NewValidationError("email", "invalid format")
		}
	}
	return nil
}
