package invoices

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/http/respond"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for invoices.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new invoices handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the invoice endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/pay", h.Pay)
	return r
}

const dateLayout = "2006-01-02"

// List handles GET /invoices with patient, period and status filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter Filter

	if raw := q.Get("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respond.BadRequest(w, "invalid patient_id")
			return
		}
		filter.PatientID = &id
	}
	if raw := q.Get("status"); raw != "" {
		st, err := ParseStatus(raw)
		if err != nil {
			respond.Error(w, h.logger, err)
			return
		}
		filter.Status = st
	}
	startRaw, endRaw := q.Get("start_date"), q.Get("end_date")
	if startRaw != "" && endRaw != "" {
		start, err := time.Parse(dateLayout, startRaw)
		if err != nil {
			respond.BadRequest(w, "invalid start_date")
			return
		}
		end, err := time.Parse(dateLayout, endRaw)
		if err != nil {
			respond.BadRequest(w, "invalid end_date")
			return
		}
		filter.PeriodStart = &start
		filter.PeriodEnd = &end
	}

	invs, err := h.service.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"invoices": invs,
		"count":    len(invs),
	})
}

// Get handles GET /invoices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid invoice id")
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, inv)
}

// Create handles POST /invoices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, inv)
}

// Update handles PUT /invoices/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid invoice id")
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	inv, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, inv)
}

// Pay handles POST /invoices/{id}/pay.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid invoice id")
		return
	}
	inv, err := h.service.MarkAsPaid(r.Context(), id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, inv)
}

// Delete handles DELETE /invoices/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid invoice id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
