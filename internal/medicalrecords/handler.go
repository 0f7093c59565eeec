package medicalrecords

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/http/respond"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// Store is the persistence surface the handler depends on.
type Store interface {
	Create(ctx context.Context, req *CreateRecordRequest) (*Record, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Record, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateRecordRequest) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles HTTP requests for medical records.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new medical records handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes mounts the medical record endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET /medical-records?patient_id=... Records are always
// scoped to a single patient.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("patient_id")
	if raw == "" {
		respond.BadRequest(w, "patient_id is required")
		return
	}
	patientID, err := uuid.Parse(raw)
	if err != nil {
		respond.BadRequest(w, "invalid patient_id")
		return
	}
	recs, err := h.store.ListByPatient(r.Context(), patientID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"medical_records": recs,
		"count":           len(recs),
	})
}

// Get handles GET /medical-records/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid medical record id")
		return
	}
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

// Create handles POST /medical-records.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	rec, err := h.store.Create(r.Context(), &req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, rec)
}

// Update handles PUT /medical-records/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid medical record id")
		return
	}
	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	rec, err := h.store.Update(r.Context(), id, &req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /medical-records/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid medical record id")
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
