package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/clinicdesk/clinic-platform/internal/invoices"
)

// exportHeader is the column contract of the financial export.
var exportHeader = []string{
	"patient", "appointment", "amount", "status", "due_date", "paid_at", "description",
}

// WriteInvoicesCSV renders invoices as the tabular financial export. The
// caller supplies rows already ordered by due date.
func WriteInvoicesCSV(w io.Writer, invs []invoices.Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("reports: write export header: %w", err)
	}
	for i := range invs {
		inv := &invs[i]
		appointmentRef := ""
		if inv.AppointmentID != nil {
			appointmentRef = inv.AppointmentID.String()
		}
		paidAt := ""
		if inv.PaidAt != nil {
			paidAt = inv.PaidAt.Format("2006-01-02 15:04")
		}
		record := []string{
			inv.PatientName,
			appointmentRef,
			FormatCents(inv.AmountCents),
			string(inv.Status),
			inv.DueDate.Format(dateLayout),
			paidAt,
			inv.Description,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("reports: write export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCents renders integer cents as a decimal amount, e.g. 25000 -> "250.00".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
