package appointments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicdesk/clinic-platform/internal/domain"
	"github.com/clinicdesk/clinic-platform/internal/observability/metrics"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

var schedulerTracer = otel.Tracer("clinic.internal.appointments")

// OverlapGuard decides whether a candidate appointment may join the given
// set of existing blocking appointments. The store calls it while holding
// the practitioner's booking lock, so a nil error means the write commits
// with the invariant intact.
type OverlapGuard func(candidate *Appointment, existing []Appointment) error

// Store is the persistence contract the Scheduler needs. CreateWithGuard and
// UpdateWithGuard must run the guard and the write inside one mutual-
// exclusion scope per practitioner (the pgx repository uses a transaction
// with an advisory lock). UpdateWithGuard additionally reads the current row
// and runs apply inside that same scope, so edits merge onto the committed
// state rather than a stale snapshot.
type Store interface {
	CreateWithGuard(ctx context.Context, appt *Appointment, guard OverlapGuard) (*Appointment, error)
	UpdateWithGuard(ctx context.Context, id uuid.UUID, apply func(*Appointment) error, guard OverlapGuard) (*Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, filter Filter) ([]Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookingRequest carries the fields a caller may set when booking.
type BookingRequest struct {
	PatientID       uuid.UUID `json:"patient_id"`
	PractitionerID  uuid.UUID `json:"practitioner_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

// UpdateRequest carries optional edits to an existing appointment. Nil
// fields are left unchanged.
type UpdateRequest struct {
	PatientID       *uuid.UUID `json:"patient_id,omitempty"`
	PractitionerID  *uuid.UUID `json:"practitioner_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// Scheduler validates and books appointments. It owns the overlap decision;
// the store owns the atomicity of check-then-write.
// ReportCacheInvalidator is notified after any appointment write so cached
// financial aggregates (which count appointments) are recomputed.
type ReportCacheInvalidator interface {
	InvalidateFinancial(ctx context.Context)
}

type Scheduler struct {
	store           Store
	logger          *logging.Logger
	metrics         *metrics.SchedulingMetrics
	now             func() time.Time
	defaultDuration int
	cache           ReportCacheInvalidator
}

// NewScheduler constructs a scheduler.
func NewScheduler(store Store, logger *logging.Logger, m *metrics.SchedulingMetrics) *Scheduler {
	if store == nil {
		panic("appointments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		store:           store,
		logger:          logger,
		metrics:         m,
		now:             time.Now,
		defaultDuration: 30,
	}
}

// WithDefaultDuration overrides the duration, in minutes, assigned to
// booking requests that do not set one.
func (s *Scheduler) WithDefaultDuration(minutes int) *Scheduler {
	if minutes > 0 {
		s.defaultDuration = minutes
	}
	return s
}

// WithReportCache registers a cache to invalidate after appointment writes.
func (s *Scheduler) WithReportCache(cache ReportCacheInvalidator) *Scheduler {
	s.cache = cache
	return s
}

func (s *Scheduler) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateFinancial(ctx)
	}
}

// WithClock overrides the scheduler's clock; used by tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Book validates the request and persists a new appointment in status
// scheduled. Booking a start time in the past fails with PastDateError;
// an overlap with another blocking appointment of the same practitioner
// fails with ConflictError.
func (s *Scheduler) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.practitioner_id", req.PractitionerID.String()),
		attribute.String("clinic.patient_id", req.PatientID.String()),
	)
	start := s.now()

	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.defaultDuration
	}
	appt := &Appointment{
		ID:              uuid.New(),
		PatientID:       req.PatientID,
		PractitionerID:  req.PractitionerID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: duration,
		Status:          StatusScheduled,
		Notes:           req.Notes,
	}
	if err := appt.Validate(); err != nil {
		s.metrics.ObserveBooking("invalid", time.Since(start))
		return nil, err
	}
	// The future-dated rule applies only at creation. Edits to an
	// appointment whose time has passed stay allowed.
	if appt.ScheduledAt.Before(s.now()) {
		s.metrics.ObserveBooking("past_date", time.Since(start))
		return nil, &domain.PastDateError{Field: "scheduled_at"}
	}

	created, err := s.store.CreateWithGuard(ctx, appt, s.guard)
	if err != nil {
		span.RecordError(err)
		if domain.IsConflict(err) {
			s.metrics.ObserveBooking("conflict", time.Since(start))
		} else {
			s.metrics.ObserveBooking("error", time.Since(start))
		}
		return nil, err
	}
	s.metrics.ObserveBooking("booked", time.Since(start))
	s.invalidate(ctx)
	s.logger.Info("appointment booked",
		"appointment_id", created.ID,
		"practitioner_id", created.PractitionerID,
		"scheduled_at", created.ScheduledAt,
		"duration_minutes", created.DurationMinutes,
	)
	return created, nil
}

// Update applies edits to an existing appointment. The store reads the
// current row, runs the merge and the overlap guard, and writes back inside
// one locked transaction, so a concurrent edit (say a cancellation) is never
// overwritten with stale fields. The past-date rule is not applied here.
func (s *Scheduler) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "appointments.update")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id.String()))

	apply := func(appt *Appointment) error {
		if req.Status != nil {
			next, err := ParseStatus(*req.Status)
			if err != nil {
				return err
			}
			if !CanTransition(appt.Status, next) {
				return domain.NewValidationError("status", "transition not allowed")
			}
			appt.Status = next
		}
		if req.PatientID != nil {
			appt.PatientID = *req.PatientID
		}
		if req.PractitionerID != nil {
			appt.PractitionerID = *req.PractitionerID
		}
		if req.ScheduledAt != nil {
			appt.ScheduledAt = *req.ScheduledAt
		}
		if req.DurationMinutes != nil {
			appt.DurationMinutes = *req.DurationMinutes
		}
		if req.Notes != nil {
			appt.Notes = *req.Notes
		}
		return appt.Validate()
	}

	updated, err := s.store.UpdateWithGuard(ctx, id, apply, s.guard)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("appointment updated", "appointment_id", updated.ID, "status", updated.Status)
	return updated, nil
}

// Get returns a single appointment.
func (s *Scheduler) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.store.GetByID(ctx, id)
}

// List returns appointments matching the filter, ordered by scheduled_at.
func (s *Scheduler) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	return s.store.List(ctx, filter)
}

// Delete removes an appointment. The storage layer detaches any invoice or
// medical record referencing it.
func (s *Scheduler) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

// guard rejects the candidate when its interval intersects any existing
// blocking appointment of the same practitioner. Cancelled and no-show rows
// are filtered out by the store before the guard runs; the status check here
// keeps the decision correct even if a store passes them through.
func (s *Scheduler) guard(candidate *Appointment, existing []Appointment) error {
	span := candidate.Range()
	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID || !other.Status.Blocking() {
			continue
		}
		if span.Overlaps(other.Range()) {
			return &domain.ConflictError{
				PractitionerID: candidate.PractitionerID.String(),
				Detail:         "appointment conflicts with an existing booking",
			}
		}
	}
	return nil
}
