package appointments

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDateWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	w := DateWindow(start, end)
	if !w.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start = %v", w.Start)
	}
	// End date is inclusive: the window runs to the following midnight.
	if !w.End.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window end = %v", w.End)
	}
	if !w.Contains(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("last instant of end date must be inside the window")
	}
	if w.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("following midnight must be outside the window")
	}
}

func TestWhereClauseEmptyFilter(t *testing.T) {
	where, args := Filter{}.whereClause()
	if where != "" || args != nil {
		t.Fatalf("empty filter should produce no clause, got %q %v", where, args)
	}
}

func TestWhereClauseComposesFilters(t *testing.T) {
	practitioner := uuid.New()
	window := DateWindow(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
	)
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	f := Filter{
		PractitionerID: &practitioner,
		Window:         &window,
		Upcoming:       true,
		Now:            now,
	}
	where, args := f.whereClause()

	if !strings.Contains(where, "a.practitioner_id = $1") {
		t.Fatalf("missing practitioner clause: %q", where)
	}
	if !strings.Contains(where, "a.scheduled_at >= $2 AND a.scheduled_at < $3") {
		t.Fatalf("missing window clause: %q", where)
	}
	if !strings.Contains(where, "a.scheduled_at >= $4") {
		t.Fatalf("missing upcoming clause: %q", where)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}
	if got := args[0].(uuid.UUID); got != practitioner {
		t.Fatalf("arg[0] = %v", got)
	}
	if got := args[3].(time.Time); !got.Equal(now) {
		t.Fatalf("arg[3] = %v, want %v", got, now)
	}
}

func TestWhereClauseTodayUsesAnchoredClock(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	where, args := Filter{Today: true, Now: now}.whereClause()

	if !strings.Contains(where, "a.scheduled_at >= $1 AND a.scheduled_at < $2") {
		t.Fatalf("missing today clause: %q", where)
	}
	start := args[0].(time.Time)
	end := args[1].(time.Time)
	if !start.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("today start = %v", start)
	}
	if !end.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("today end = %v", end)
	}
}
