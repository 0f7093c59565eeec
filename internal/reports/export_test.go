package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-platform/internal/invoices"
)

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{25000, "250.00"},
		{30050, "300.50"},
		{5, "0.05"},
		{0, "0.00"},
		{-1250, "-12.50"},
	}
	for _, tt := range tests {
		if got := FormatCents(tt.cents); got != tt.want {
			t.Fatalf("FormatCents(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestWriteInvoicesCSV(t *testing.T) {
	apptID := uuid.New()
	paidAt := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	invs := []invoices.Invoice{
		{
			ID:            uuid.New(),
			PatientName:   "Maria Souza",
			AppointmentID: &apptID,
			AmountCents:   25000,
			Status:        invoices.StatusPaid,
			DueDate:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			PaidAt:        &paidAt,
			Description:   "Consultation",
		},
		{
			ID:          uuid.New(),
			PatientName: "João Pereira",
			AmountCents: 30000,
			Status:      invoices.StatusPending,
			DueDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInvoicesCSV(&buf, invs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, exportHeader, records[0])
	require.Equal(t,
		[]string{"Maria Souza", apptID.String(), "250.00", "paid", "2026-03-10", "2026-03-05 14:30", "Consultation"},
		records[1])
	// Optional fields render empty, not "null".
	require.Equal(t,
		[]string{"João Pereira", "", "300.00", "pending", "2026-03-15", "", ""},
		records[2])
}
