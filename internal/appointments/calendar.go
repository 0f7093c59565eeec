package appointments

import (
	"fmt"
	"time"
)

// CalendarEvent is the shape the booking calendar UI consumes.
type CalendarEvent struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Start           string             `json:"start"`
	End             string             `json:"end"`
	URL             string             `json:"url"`
	BackgroundColor string             `json:"backgroundColor"`
	ExtendedProps   CalendarEventProps `json:"extendedProps"`
}

// CalendarEventProps carries the extra fields the calendar popover shows.
type CalendarEventProps struct {
	Status       string `json:"status"`
	Patient      string `json:"patient"`
	Practitioner string `json:"practitioner"`
}

// statusColors is the calendar color contract. Unknown statuses fall back
// to the scheduled blue.
var statusColors = map[Status]string{
	StatusScheduled:  "#3B82F6",
	StatusConfirmed:  "#10B981",
	StatusInProgress: "#F59E0B",
	StatusCompleted:  "#6B7280",
	StatusCancelled:  "#EF4444",
	StatusNoShow:     "#8B5CF6",
}

const defaultStatusColor = "#3B82F6"

// StatusColor returns the calendar color for a status.
func StatusColor(s Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return defaultStatusColor
}

// CalendarFeed renders appointments as calendar events.
func CalendarFeed(appts []Appointment) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(appts))
	for i := range appts {
		events = append(events, NewCalendarEvent(&appts[i]))
	}
	return events
}

// NewCalendarEvent serializes one appointment for the calendar.
func NewCalendarEvent(a *Appointment) CalendarEvent {
	return CalendarEvent{
		ID:              a.ID.String(),
		Title:           fmt.Sprintf("%s - %s", a.PatientName, a.PractitionerName),
		Start:           a.ScheduledAt.Format(time.RFC3339),
		End:             a.EndTime().Format(time.RFC3339),
		URL:             "/appointments/" + a.ID.String(),
		BackgroundColor: StatusColor(a.Status),
		ExtendedProps: CalendarEventProps{
			Status:       string(a.Status),
			Patient:      a.PatientName,
			Practitioner: a.PractitionerName,
		},
	}
}
