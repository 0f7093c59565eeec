// Package timerange provides half-open time interval arithmetic. A Range
// covers [Start, End): the start instant belongs to the range, the end
// instant does not, so back-to-back appointments never conflict.
//
// Every overlap decision in the platform routes through Range.Overlaps;
// ad-hoc timestamp comparisons elsewhere are a bug.
package timerange

import "time"

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// New builds the range covering duration starting at start.
func New(start time.Time, duration time.Duration) Range {
	return Range{Start: start, End: start.Add(duration)}
}

// Overlaps reports whether r and other share at least one instant.
// Touching ranges (r.End == other.Start) do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Duration returns the span of the range.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// IsZeroLength reports whether the range covers no instants at all.
// A zero-length range overlaps nothing, including itself.
func (r Range) IsZeroLength() bool {
	return !r.Start.Before(r.End)
}
