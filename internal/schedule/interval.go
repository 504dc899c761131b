package schedule

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
// Back-to-back intervals (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Expand widens an interval by the given padding on each side.
func Expand(iv Interval, before, after time.Duration) Interval {
	return Interval{
		Start: iv.Start.Add(-before),
		End:   iv.End.Add(after),
	}
}

// OverlapsAny reports whether [start, start+duration) intersects any of the
// given intervals.
func OverlapsAny(candidate Interval, blocking []Interval) bool {
	for _, b := range blocking {
		if Overlaps(candidate, b) {
			return true
		}
	}
	return false
}
