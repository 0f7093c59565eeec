package reports

import (
	"testing"
	"time"
)

func TestNewPeriodTruncatesTimeOfDay(t *testing.T) {
	p := NewPeriod(
		time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC),
	)
	if !p.Start.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", p.Start)
	}
	if !p.End.Equal(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", p.End)
	}
	if p.Key() != "2026-03-01:2026-03-31" {
		t.Fatalf("key = %q", p.Key())
	}
}

func TestTimestampWindowCoversEndOfDay(t *testing.T) {
	p := marchPeriod()
	w := p.TimestampWindow()

	if !w.Contains(time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatal("end date's last instant must be inside the window")
	}
	if w.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("first instant of the next day must be outside the window")
	}
	if !w.Contains(p.Start) {
		t.Fatal("period start must be inside the window")
	}
}

func TestCurrentMonth(t *testing.T) {
	p := CurrentMonth(time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC))
	if !p.Start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", p.Start)
	}
	if !p.End.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", p.End)
	}
}
