package reports

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-platform/internal/http/respond"
	"github.com/clinicdesk/clinic-platform/internal/invoices"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// InvoiceExporter supplies the rows for the CSV export, ordered by due date.
type InvoiceExporter interface {
	Export(ctx context.Context, periodStart, periodEnd time.Time) ([]invoices.Invoice, error)
}

// Handler serves the financial report and its CSV export.
type Handler struct {
	service  *Service
	exporter InvoiceExporter
	logger   *logging.Logger
}

// NewHandler creates a new reports handler.
func NewHandler(service *Service, exporter InvoiceExporter, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, exporter: exporter, logger: logger}
}

// Routes mounts the report endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/financial", h.Financial)
	r.Get("/export", h.Export)
	return r
}

// periodFromQuery reads start_date/end_date; defaults to the current month.
func periodFromQuery(r *http.Request) (Period, error) {
	q := r.URL.Query()
	startRaw, endRaw := q.Get("start_date"), q.Get("end_date")
	if startRaw == "" && endRaw == "" {
		return CurrentMonth(time.Now()), nil
	}
	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return Period{}, fmt.Errorf("invalid start_date")
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return Period{}, fmt.Errorf("invalid end_date")
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("end_date before start_date")
	}
	return NewPeriod(start, end), nil
}

// Financial handles GET /reports/financial.
func (h *Handler) Financial(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	summary, err := h.service.FinancialSummary(r.Context(), period)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, summary)
}

// Export handles GET /reports/export, streaming the period's invoices as a
// CSV attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	invs, err := h.exporter.Export(r.Context(), period.Start, period.End)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	filename := fmt.Sprintf("financial_report_%s_%s.csv",
		period.Start.Format(dateLayout), period.End.Format(dateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := WriteInvoicesCSV(w, invs); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}
