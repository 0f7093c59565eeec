package practitioners

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
	Create(ctx context.Context, req *CreatePractitionerRequest) (*Practitioner, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	List(ctx context.Context, specialty string) ([]Practitioner, error)
	Update(ctx context.Context, id uuid.UUID, req *CreatePractitionerRequest) (*Practitioner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles HTTP requests for practitioners.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new practitioners handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes mounts the practitioner endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET /practitioners with an optional specialty filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), r.URL.Query().Get("specialty"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"practitioners": list,
		"count":         len(list),
	})
}

// Get handles GET /practitioners/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid practitioner id")
		return
	}
	p, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Create handles POST /practitioners.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePractitionerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	p, err := h.store.Create(r.Context(), &req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

// Update handles PUT /practitioners/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid practitioner id")
		return
	}
	var req CreatePractitionerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	p, err := h.store.Update(r.Context(), id, &req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Delete handles DELETE /practitioners/{id}. Cascades to the
// practitioner's appointments.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid practitioner id")
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
