// Package reports computes financial and scheduling aggregates over a date
// window. It is strictly read-side: nothing here mutates state.
package reports

import (
	"time"

	"github.com/clinicdesk/clinic-platform/internal/timerange"
)

const dateLayout = "2006-01-02"

// Period is an inclusive calendar-date window [Start, End]. Timestamp
// fields are matched against the expanded window (start's beginning of day
// through end's end of day); date fields compare directly.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a period from two dates, truncating any time-of-day.
func NewPeriod(start, end time.Time) Period {
	return Period{Start: dateOf(start), End: dateOf(end)}
}

// CurrentMonth returns the period covering now's calendar month.
func CurrentMonth(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Period{Start: first, End: first.AddDate(0, 1, -1)}
}

// TimestampWindow expands the period to the half-open timestamp range
// [Start 00:00, End+1d 00:00) used when filtering timestamp columns.
func (p Period) TimestampWindow() timerange.Range {
	return timerange.Range{Start: p.Start, End: p.End.AddDate(0, 0, 1)}
}

// Key renders the period for cache keys and responses.
func (p Period) Key() string {
	return p.Start.Format(dateLayout) + ":" + p.End.Format(dateLayout)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
