package appointments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/domain"
	"github.com/clinicdesk/clinic-platform/pkg/logging"
)

// memStore holds appointments in memory. Read, merge, guard and write run
// under one mutex, mirroring the locked-transaction scope of the pgx
// repository. beforeUpdate, when set, runs just before an update acquires
// the lock, standing in for a concurrent writer that commits first.
type memStore struct {
	mu           sync.Mutex
	appts        map[uuid.UUID]Appointment
	beforeUpdate func()
}

func newMemStore() *memStore {
	return &memStore{appts: make(map[uuid.UUID]Appointment)}
}

func (m *memStore) blocking(practitionerID, exclude uuid.UUID) []Appointment {
	var out []Appointment
	for _, a := range m.appts {
		if a.PractitionerID == practitionerID && a.ID != exclude && a.Status.Blocking() {
			out = append(out, a)
		}
	}
	return out
}

func (m *memStore) CreateWithGuard(ctx context.Context, appt *Appointment, guard OverlapGuard) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if guard != nil {
		if err := guard(appt, m.blocking(appt.PractitionerID, appt.ID)); err != nil {
			return nil, err
		}
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	m.appts[appt.ID] = *appt
	return appt, nil
}

func (m *memStore) UpdateWithGuard(ctx context.Context, id uuid.UUID, apply func(*Appointment) error, guard OverlapGuard) (*Appointment, error) {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appts[id]
	if !ok {
		return nil, domain.NewNotFoundError("appointment", id.String())
	}
	if apply != nil {
		if err := apply(&appt); err != nil {
			return nil, err
		}
	}
	if guard != nil {
		if err := guard(&appt, m.blocking(appt.PractitionerID, appt.ID)); err != nil {
			return nil, err
		}
	}
	appt.UpdatedAt = time.Now()
	m.appts[appt.ID] = appt
	return &appt, nil
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, domain.NewNotFoundError("appointment", id.String())
	}
	return &a, nil
}

func (m *memStore) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[id]; !ok {
		return domain.NewNotFoundError("appointment", id.String())
	}
	delete(m.appts, id)
	return nil
}

var clock = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

func newTestScheduler(store Store) *Scheduler {
	return NewScheduler(store, logging.New("error"), nil).WithClock(func() time.Time { return clock })
}

func booking(practitioner uuid.UUID, at time.Time, minutes int) BookingRequest {
	return BookingRequest{
		PatientID:       uuid.New(),
		PractitionerID:  practitioner,
		ScheduledAt:     at,
		DurationMinutes: minutes,
	}
}

func TestBookDefaultsToScheduled(t *testing.T) {
	s := newTestScheduler(newMemStore())
	appt, err := s.Book(context.Background(), booking(uuid.New(), clock.Add(time.Hour), 30))
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Fatalf("expected status scheduled, got %s", appt.Status)
	}
	if got := appt.EndTime(); !got.Equal(appt.ScheduledAt.Add(30 * time.Minute)) {
		t.Fatalf("unexpected end time %v", got)
	}
}

func TestUpdateMergesOntoCurrentState(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store)

	appt, err := s.Book(context.Background(), booking(uuid.New(), clock.Add(time.Hour), 30))
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}

	// A cancellation commits just before the notes edit enters the store's
	// critical section. The edit must merge onto the cancelled row, not
	// write back the stale scheduled snapshot.
	store.beforeUpdate = func() {
		store.mu.Lock()
		a := store.appts[appt.ID]
		a.Status = StatusCancelled
		store.appts[appt.ID] = a
		store.mu.Unlock()
	}

	notes := "arrive ten minutes early"
	updated, err := s.Update(context.Background(), appt.ID, UpdateRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Fatalf("concurrent cancellation lost: status = %s", updated.Status)
	}
	if updated.Notes != notes {
		t.Fatalf("notes edit lost: %q", updated.Notes)
	}
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateFinancial(context.Context) { c.calls++ }

func TestWritesInvalidateReportCache(t *testing.T) {
	inv := &countingInvalidator{}
	s := newTestScheduler(newMemStore()).WithReportCache(inv)

	appt, err := s.Book(context.Background(), booking(uuid.New(), clock.Add(time.Hour), 30))
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	notes := "rescheduling note"
	if _, err := s.Update(context.Background(), appt.ID, UpdateRequest{Notes: &notes}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := s.Delete(context.Background(), appt.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if inv.calls != 3 {
		t.Fatalf("expected 3 invalidations, got %d", inv.calls)
	}
}

func TestBookAppliesDefaultDuration(t *testing.T) {
	s := newTestScheduler(newMemStore()).WithDefaultDuration(45)
	appt, err := s.Book(context.Background(), booking(uuid.New(), clock.Add(time.Hour), 0))
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if appt.DurationMinutes != 45 {
		t.Fatalf("expected default duration 45, got %d", appt.DurationMinutes)
	}
}

func TestBookRejectsOverlap(t *testing.T) {
	s := newTestScheduler(newMemStore())
	practitioner := uuid.New()
	at := clock.Add(24 * time.Hour)

	if _, err := s.Book(context.Background(), booking(practitioner, at, 30)); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	_, err := s.Book(context.Background(), booking(practitioner, at.Add(15*time.Minute), 30))
	if !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestBookAllowsTouchingIntervals(t *testing.T) {
	s := newTestScheduler(newMemStore())
	practitioner := uuid.New()
	// 10:00-10:30 booked; 10:30-11:00 must succeed.
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	if _, err := s.Book(context.Background(), booking(practitioner, at, 30)); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := s.Book(context.Background(), booking(practitioner, at.Add(30*time.Minute), 30)); err != nil {
		t.Fatalf("back-to-back booking should succeed, got %v", err)
	}
}

func TestBookCrossPractitionerIndependence(t *testing.T) {
	s := newTestScheduler(newMemStore())
	at := clock.Add(48 * time.Hour)

	if _, err := s.Book(context.Background(), booking(uuid.New(), at, 45)); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := s.Book(context.Background(), booking(uuid.New(), at, 45)); err != nil {
		t.Fatalf("same slot for a different practitioner should succeed, got %v", err)
	}
}

func TestBookRejectsPastDate(t *testing.T) {
	s := newTestScheduler(newMemStore())
	_, err := s.Book(context.Background(), booking(uuid.New(), clock.Add(-24*time.Hour), 30))
	if !domain.IsPastDate(err) {
		t.Fatalf("expected PastDateError, got %v", err)
	}
}

func TestPastDateRuleOnlyAppliesAtCreation(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store)
	practitioner := uuid.New()

	appt, err := s.Book(context.Background(), booking(practitioner, clock.Add(time.Hour), 30))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	// The appointment's time passes; editing only the notes must work.
	clockAfter := appt.ScheduledAt.Add(72 * time.Hour)
	s.WithClock(func() time.Time { return clockAfter })

	notes := "patient arrived late"
	updated, err := s.Update(context.Background(), appt.ID, UpdateRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("editing a past appointment should succeed, got %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("notes not applied: %q", updated.Notes)
	}
}

func TestCancelledAppointmentsDoNotBlock(t *testing.T) {
	s := newTestScheduler(newMemStore())
	practitioner := uuid.New()
	at := clock.Add(24 * time.Hour)

	appt, err := s.Book(context.Background(), booking(practitioner, at, 30))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	cancelled := string(StatusCancelled)
	if _, err := s.Update(context.Background(), appt.ID, UpdateRequest{Status: &cancelled}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := s.Book(context.Background(), booking(practitioner, at, 30)); err != nil {
		t.Fatalf("slot freed by cancellation should be bookable, got %v", err)
	}
}

func TestRescheduleIntoConflictFails(t *testing.T) {
	s := newTestScheduler(newMemStore())
	practitioner := uuid.New()
	at := clock.Add(24 * time.Hour)

	if _, err := s.Book(context.Background(), booking(practitioner, at, 30)); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	second, err := s.Book(context.Background(), booking(practitioner, at.Add(time.Hour), 30))
	if err != nil {
		t.Fatalf("second booking failed: %v", err)
	}

	moved := at.Add(10 * time.Minute)
	_, err = s.Update(context.Background(), second.ID, UpdateRequest{ScheduledAt: &moved})
	if !domain.IsConflict(err) {
		t.Fatalf("expected ConflictError on reschedule, got %v", err)
	}
	// The edited appointment itself must not count as a conflict.
	if _, err := s.Update(context.Background(), second.ID, UpdateRequest{ScheduledAt: &at}); domain.IsConflict(err) {
		t.Fatalf("unexpected ConflictError: %v", err)
	}
}

func TestBookValidatesFields(t *testing.T) {
	s := newTestScheduler(newMemStore())
	req := booking(uuid.New(), clock.Add(time.Hour), 0)
	_, err := s.Book(context.Background(), req)
	if !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for zero duration, got %v", err)
	}

	req = booking(uuid.Nil, clock.Add(time.Hour), 30)
	req.PractitionerID = uuid.Nil
	if _, err := s.Book(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for missing practitioner, got %v", err)
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	s := newTestScheduler(newMemStore())
	appt, err := s.Book(context.Background(), booking(uuid.New(), clock.Add(time.Hour), 30))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	bogus := "rescheduled"
	if _, err := s.Update(context.Background(), appt.ID, UpdateRequest{Status: &bogus}); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError for unknown status, got %v", err)
	}
}

// TestConcurrentBookingsSameSlot drives many interleaved requests for one
// slot through the scheduler; the guarded store must admit exactly one.
func TestConcurrentBookingsSameSlot(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store)
	practitioner := uuid.New()
	at := clock.Add(24 * time.Hour)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Book(context.Background(), booking(practitioner, at, 30))
		}(i)
	}
	wg.Wait()

	var booked, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			booked++
		case domain.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if booked != 1 {
		t.Fatalf("expected exactly one successful booking, got %d", booked)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
	assertNoOverlaps(t, store)
}

// TestOverlapInvariantAfterMixedOperations replays a sequence of creates,
// reschedules and cancellations and re-checks the invariant at the end.
func TestOverlapInvariantAfterMixedOperations(t *testing.T) {
	store := newMemStore()
	s := newTestScheduler(store)
	practitioners := []uuid.UUID{uuid.New(), uuid.New()}
	base := clock.Add(24 * time.Hour)

	var created []*Appointment
	for i := 0; i < 40; i++ {
		p := practitioners[i%len(practitioners)]
		at := base.Add(time.Duration((i*17)%300) * time.Minute)
		appt, err := s.Book(context.Background(), booking(p, at, 20+(i%3)*20))
		if err == nil {
			created = append(created, appt)
		} else if !domain.IsConflict(err) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	for i, appt := range created {
		switch i % 3 {
		case 0:
			cancelled := string(StatusCancelled)
			if _, err := s.Update(context.Background(), appt.ID, UpdateRequest{Status: &cancelled}); err != nil {
				t.Fatalf("cancel failed: %v", err)
			}
		case 1:
			moved := appt.ScheduledAt.Add(7 * time.Minute)
			if _, err := s.Update(context.Background(), appt.ID, UpdateRequest{ScheduledAt: &moved}); err != nil && !domain.IsConflict(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}
	assertNoOverlaps(t, store)
}

// assertNoOverlaps verifies the committed blocking appointments of every
// practitioner are pairwise disjoint.
func assertNoOverlaps(t *testing.T, store *memStore) {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()

	byPractitioner := make(map[uuid.UUID][]Appointment)
	for _, a := range store.appts {
		if a.Status.Blocking() {
			byPractitioner[a.PractitionerID] = append(byPractitioner[a.PractitionerID], a)
		}
	}
	for practitioner, appts := range byPractitioner {
		for i := range appts {
			for j := i + 1; j < len(appts); j++ {
				if appts[i].Range().Overlaps(appts[j].Range()) {
					t.Fatalf("overlap invariant violated for practitioner %s: %v and %v",
						practitioner, appts[i].Range(), appts[j].Range())
				}
			}
		}
	}
}
