// Package router wires the clinic HTTP API together.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicdesk/clinic-platform/internal/appointments"
	httpmiddleware "github.com/clinicdesk/clinic-platform/internal/http/middleware"
	"github.com/clinicdesk/clinic-platform/internal/http/respond"
	"github.com/clinicdesk/clinic-platform/internal/invoices"
	"github.com/clinicdesk/clinic-platform/internal/medicalrecords"
	"github.com/clinicdesk/clinic-platform/internal/patients"
	"github.com/clinicdesk/clinic-platform/internal/practitioners"
	"github.com/clinicdesk/clinic-platform/internal/reports"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	PatientsHandler      *patients.Handler
	PractitionersHandler *practitioners.Handler
	AppointmentsHandler  *appointments.Handler
	InvoicesHandler      *invoices.Handler
	RecordsHandler       *medicalrecords.Handler
	ReportsHandler       *reports.Handler
	MetricsHandler       http.Handler
	CORSAllowedOrigins   []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.PatientsHandler != nil {
		r.Mount("/patients", cfg.PatientsHandler.Routes())
	}
	if cfg.PractitionersHandler != nil {
		r.Mount("/practitioners", cfg.PractitionersHandler.Routes())
	}
	if cfg.AppointmentsHandler != nil {
		r.Mount("/appointments", cfg.AppointmentsHandler.Routes())
	}
	if cfg.InvoicesHandler != nil {
		r.Mount("/invoices", cfg.InvoicesHandler.Routes())
	}
	if cfg.RecordsHandler != nil {
		r.Mount("/medical-records", cfg.RecordsHandler.Routes())
	}
	if cfg.ReportsHandler != nil {
		r.Mount("/reports", cfg.ReportsHandler.Routes())
	}

	return r
}
