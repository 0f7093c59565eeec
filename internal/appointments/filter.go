package appointments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-platform/internal/timerange"
)

// Filter narrows appointment listings. Zero values mean "no constraint";
// filters compose with AND. Now anchors the Today/Upcoming subsets so the
// same filter value always selects the same rows.
type Filter struct {
	PractitionerID *uuid.UUID
	PatientID      *uuid.UUID

	// Window selects rows whose scheduled_at falls in the half-open range.
	Window *timerange.Range

	Today    bool
	Upcoming bool
	Now      time.Time
}

// DateWindow converts an inclusive calendar-date range into the half-open
// timestamp window [start 00:00, end+1d 00:00) used for scheduled_at.
func DateWindow(startDate, endDate time.Time) timerange.Range {
	loc := startDate.Location()
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, loc)
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return timerange.Range{Start: start, End: end}
}

// whereClause renders the filter as SQL. Placeholders start at $1.
func (f Filter) whereClause() (string, []any) {
	var clauses []string
	var args []any

	add := func(expr string, vals ...any) {
		for _, v := range vals {
			args = append(args, v)
			expr = strings.Replace(expr, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, expr)
	}

	if f.PractitionerID != nil {
		add("a.practitioner_id = ?", *f.PractitionerID)
	}
	if f.PatientID != nil {
		add("a.patient_id = ?", *f.PatientID)
	}
	if f.Window != nil {
		add("a.scheduled_at >= ? AND a.scheduled_at < ?", f.Window.Start, f.Window.End)
	}
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	if f.Today {
		day := DateWindow(now, now)
		add("a.scheduled_at >= ? AND a.scheduled_at < ?", day.Start, day.End)
	}
	if f.Upcoming {
		add("a.scheduled_at >= ?", now)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
