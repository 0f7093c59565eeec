package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/domain"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// Store is the persistence contract the service needs.
type Store interface {
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, filter Filter) ([]Invoice, error)
	ListForExport(ctx context.Context, periodStart, periodEnd time.Time) ([]Invoice, error)
	Update(ctx context.Context, id uuid.UUID, merge func(*Invoice) error) (*Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CacheInvalidator is notified after any invoice write so cached financial
// aggregates are recomputed. The reports cache implements it.
type CacheInvalidator interface {
	InvalidateFinancial(ctx context.Context)
}

// CreateRequest carries the fields a caller may set on a new invoice.
type CreateRequest struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	AmountCents   int64      `json:"amount_cents"`
	DueDate       time.Time  `json:"due_date"`
	Description   string     `json:"description"`
}

// UpdateRequest carries optional edits. Nil fields are left unchanged.
type UpdateRequest struct {
	PatientID     *uuid.UUID `json:"patient_id,omitempty"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	AmountCents   *int64     `json:"amount_cents,omitempty"`
	Status        *string    `json:"status,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Description   *string    `json:"description,omitempty"`
}

// Service coordinates invoice writes and keeps the paid_at invariant:
// paid_at is non-null exactly when status is paid.
type Service struct {
	store  Store
	logger *logging.Logger
	cache  CacheInvalidator
	now    func() time.Time
}

// NewService constructs an invoices service. cache may be nil.
func NewService(store Store, logger *logging.Logger, cache CacheInvalidator) *Service {
	if store == nil {
		panic("invoices: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger, cache: cache, now: time.Now}
}

// WithClock overrides the service clock; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates and persists a new invoice in status pending.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Invoice, error) {
	inv := &Invoice{
		ID:            uuid.New(),
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		AmountCents:   req.AmountCents,
		Status:        StatusPending,
		DueDate:       req.DueDate,
		Description:   req.Description,
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, inv)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("invoice created",
		"invoice_id", created.ID,
		"patient_id", created.PatientID,
		"amount_cents", created.AmountCents,
		"due_date", created.DueDate.Format("2006-01-02"),
	)
	return created, nil
}

// Get returns a single invoice.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.store.GetByID(ctx, id)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Invoice, error) {
	return s.store.List(ctx, filter)
}

// Update applies edits to an existing invoice. Moving the status away from
// paid clears paid_at; moving it to paid through an edit stamps paid_at so
// the invariant never breaks. The store runs the merge against the current
// row inside its locked transaction, so a payment committing concurrently is
// merged with, not overwritten by, the edit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Invoice, error) {
	merge := func(inv *Invoice) error {
		if req.Status != nil {
			next, err := ParseStatus(*req.Status)
			if err != nil {
				return err
			}
			// Overdue is derived from due_date, never stored.
			if next == StatusOverdue {
				return domain.NewValidationError("status", "overdue is derived and can not be assigned")
			}
			inv.Status = next
			if next == StatusPaid {
				if inv.PaidAt == nil {
					paidAt := s.now()
					inv.PaidAt = &paidAt
				}
			} else {
				inv.PaidAt = nil
			}
		}
		if req.PatientID != nil {
			inv.PatientID = *req.PatientID
		}
		if req.AppointmentID != nil {
			inv.AppointmentID = req.AppointmentID
		}
		if req.AmountCents != nil {
			inv.AmountCents = *req.AmountCents
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.Description != nil {
			inv.Description = *req.Description
		}
		return inv.Validate()
	}

	updated, err := s.store.Update(ctx, id, merge)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// MarkAsPaid marks the invoice paid and stamps paid_at with the current
// time. It is idempotent: repeating the call leaves status paid and simply
// refreshes paid_at. Fails only when the invoice does not exist.
func (s *Service) MarkAsPaid(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.store.MarkPaid(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("invoice paid", "invoice_id", inv.ID, "paid_at", inv.PaidAt)
	return inv, nil
}

// Delete removes an invoice.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("invoice deleted", "invoice_id", id)
	return nil
}

// Export returns invoices for the period ordered by due date.
func (s *Service) Export(ctx context.Context, periodStart, periodEnd time.Time) ([]Invoice, error) {
	return s.store.ListForExport(ctx, periodStart, periodEnd)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateFinancial(ctx)
	}
}
