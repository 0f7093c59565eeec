package timerange

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func at(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{
			name: "identical ranges overlap",
			a:    Range{at(0), at(30)},
			b:    Range{at(0), at(30)},
			want: true,
		},
		{
			name: "partial overlap at tail",
			a:    Range{at(0), at(30)},
			b:    Range{at(15), at(45)},
			want: true,
		},
		{
			name: "contained range overlaps",
			a:    Range{at(0), at(60)},
			b:    Range{at(15), at(30)},
			want: true,
		},
		{
			name: "touching ranges do not overlap",
			a:    Range{at(0), at(30)},
			b:    Range{at(30), at(60)},
			want: false,
		},
		{
			name: "touching ranges do not overlap reversed",
			a:    Range{at(30), at(60)},
			b:    Range{at(0), at(30)},
			want: false,
		},
		{
			name: "disjoint ranges do not overlap",
			a:    Range{at(0), at(30)},
			b:    Range{at(60), at(90)},
			want: false,
		},
		{
			name: "zero-length range overlaps nothing",
			a:    Range{at(15), at(15)},
			b:    Range{at(0), at(30)},
			want: false,
		},
		{
			name: "one minute overlap",
			a:    Range{at(0), at(31)},
			b:    Range{at(30), at(60)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	r := New(base, 45*time.Minute)
	if !r.Start.Equal(base) {
		t.Fatalf("unexpected start %v", r.Start)
	}
	if !r.End.Equal(at(45)) {
		t.Fatalf("unexpected end %v", r.End)
	}
	if r.Duration() != 45*time.Minute {
		t.Fatalf("unexpected duration %v", r.Duration())
	}
}

func TestContains(t *testing.T) {
	r := Range{at(0), at(30)}
	if !r.Contains(at(0)) {
		t.Fatal("start instant belongs to the range")
	}
	if r.Contains(at(30)) {
		t.Fatal("end instant is excluded from the range")
	}
	if !r.Contains(at(29)) {
		t.Fatal("interior instant belongs to the range")
	}
}

func TestIsZeroLength(t *testing.T) {
	if !(Range{at(5), at(5)}).IsZeroLength() {
		t.Fatal("equal start/end is zero length")
	}
	if (Range{at(0), at(1)}).IsZeroLength() {
		t.Fatal("positive span is not zero length")
	}
}
