package appointments

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/http/respond"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	scheduler *Scheduler
	logger    *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(scheduler *Scheduler, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{scheduler: scheduler, logger: logger}
}

// Routes mounts the appointment endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/calendar", h.Calendar)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

const dateLayout = "2006-01-02"

// filterFromQuery builds a listing filter from the request query string.
// Supported params: practitioner_id, patient_id, start_date, end_date
// (calendar dates), today, upcoming.
func filterFromQuery(r *http.Request) (Filter, error) {
	var f Filter
	q := r.URL.Query()

	if raw := q.Get("practitioner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, err
		}
		f.PractitionerID = &id
	}
	if raw := q.Get("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, err
		}
		f.PatientID = &id
	}

	startRaw, endRaw := q.Get("start_date"), q.Get("end_date")
	if startRaw == "" {
		startRaw = q.Get("start")
	}
	if endRaw == "" {
		endRaw = q.Get("end")
	}
	if startRaw != "" && endRaw != "" {
		start, err := time.Parse(dateLayout, startRaw)
		if err != nil {
			return f, err
		}
		end, err := time.Parse(dateLayout, endRaw)
		if err != nil {
			return f, err
		}
		window := DateWindow(start, end)
		f.Window = &window
	}

	f.Today = q.Get("today") != ""
	f.Upcoming = q.Get("upcoming") != ""
	return f, nil
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respond.BadRequest(w, "invalid query parameters")
		return
	}
	appts, err := h.scheduler.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"appointments": appts,
		"count":        len(appts),
	})
}

// Calendar handles GET /appointments/calendar: the event feed the booking
// calendar consumes. Defaults to the current month when no window is given.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respond.BadRequest(w, "invalid query parameters")
		return
	}
	if filter.Window == nil {
		now := time.Now()
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		window := DateWindow(first, first.AddDate(0, 1, -1))
		filter.Window = &window
	}
	appts, err := h.scheduler.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, CalendarFeed(appts))
}

// Get handles GET /appointments/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid appointment id")
		return
	}
	appt, err := h.scheduler.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, appt)
}

// Create handles POST /appointments; bookings go through the Scheduler.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	appt, err := h.scheduler.Book(r.Context(), req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, appt)
}

// Update handles PUT /appointments/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid appointment id")
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "invalid request body")
		return
	}
	appt, err := h.scheduler.Update(r.Context(), id, req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, appt)
}

// Delete handles DELETE /appointments/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid appointment id")
		return
	}
	if err := h.scheduler.Delete(r.Context(), id); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
