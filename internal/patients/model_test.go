package patients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-platform/internal/domain"
)

func TestValidateNormalizesCPF(t *testing.T) {
	cases := []struct {
		name string
		cpf  string
		want string
	}{
		{"fully punctuated", "123.456.789-09", "12345678909"},
		{"digits only", "12345678909", "12345678909"},
		{"dash only", "123456789-09", "12345678909"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &CreatePatientRequest{Name: "Maria Silva", CPF: tc.cpf}
			require.NoError(t, req.Validate())
			assert.Equal(t, tc.want, req.CPF)
		})
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		req   CreatePatientRequest
		field string
	}{
		{"missing name", CreatePatientRequest{CPF: "12345678909"}, "name"},
		{"blank name", CreatePatientRequest{Name: "   ", CPF: "12345678909"}, "name"},
		{"missing cpf", CreatePatientRequest{Name: "Maria"}, "cpf"},
		{"short cpf", CreatePatientRequest{Name: "Maria", CPF: "1234567890"}, "cpf"},
		{"letters in cpf", CreatePatientRequest{Name: "Maria", CPF: "123.456.789-0a"}, "cpf"},
		{"bad email", CreatePatientRequest{Name: "Maria", CPF: "12345678909", Email: "not-an-email"}, "email"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			require.Error(t, err)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidateNormalizesEmail(t *testing.T) {
	req := &CreatePatientRequest{Name: "Maria", CPF: "12345678909", Email: "  Maria.Silva@Example.COM "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "maria.silva@example.com", req.Email)
}

func TestFormattedCPF(t *testing.T) {
	p := &Patient{CPF: "12345678909"}
	assert.Equal(t, "123.456.789-09", p.FormattedCPF())

	malformed := &Patient{CPF: "123"}
	assert.Equal(t, "123", malformed.FormattedCPF())
}

func TestAge(t *testing.T) {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	t.Run("birthday already passed this year", func(t *testing.T) {
		bd := time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)
		p := &Patient{BirthDate: &bd}
		require.NotNil(t, p.Age(now))
		assert.Equal(t, 36, *p.Age(now))
	})

	t.Run("birthday later this year", func(t *testing.T) {
		bd := time.Date(1990, time.December, 25, 0, 0, 0, 0, time.UTC)
		p := &Patient{BirthDate: &bd}
		assert.Equal(t, 35, *p.Age(now))
	})

	t.Run("birthday today", func(t *testing.T) {
		bd := time.Date(2000, time.September, 1, 0, 0, 0, 0, time.UTC)
		p := &Patient{BirthDate: &bd}
		assert.Equal(t, 26, *p.Age(now))
	})

	t.Run("unknown birth date", func(t *testing.T) {
		p := &Patient{}
		assert.Nil(t, p.Age(now))
	})
}
