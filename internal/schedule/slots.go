package schedule

import (
	"fmt"
	"sort"
	"time"
)

// DefaultStep is the spacing between candidate slot start times. Guests may
// pick any quarter-hour aligned start, not just duration-aligned ones.
const DefaultStep = 15 * time.Minute

// Slot is a bookable start time. The end is implicitly Start plus the event
// type's duration. Slots are computed per request and never persisted.
type Slot struct {
	Start     time.Time
	Formatted string // wall clock "15:04" in the host's timezone
}

// Window is one availability range on a weekday, as wall-clock "HH:mm" times.
type Window struct {
	StartTime string
	EndTime   string
}

// ParseClock parses a "HH:mm" wall clock string.
func ParseClock(s string) (hour, minute int, err error) {
	if _, err := time.Parse("15:04", s); err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	fmt.Sscanf(s, "%d:%d", &hour, &minute)
	return hour, minute, nil
}

// GenerateSlots expands an availability window on the given date into
// candidate slots. The anchor walks from the window start in step increments;
// a candidate is emitted whenever start+duration still fits inside the window.
// The date is a civil day: its year, month and day are taken as given and
// anchored in loc, the host's declared timezone; its own clock and zone are
// ignored.
func GenerateSlots(w Window, date time.Time, loc *time.Location, duration, step time.Duration) ([]Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %s", duration)
	}
	if step <= 0 {
		step = DefaultStep
	}

	startHour, startMin, err := ParseClock(w.StartTime)
	if err != nil {
		return nil, err
	}
	endHour, endMin, err := ParseClock(w.EndTime)
	if err != nil {
		return nil, err
	}

	year, month, day := date.Date()
	current := time.Date(year, month, day, startHour, startMin, 0, 0, loc)
	rangeEnd := time.Date(year, month, day, endHour, endMin, 0, 0, loc)

	if !rangeEnd.After(current) {
		return nil, fmt.Errorf("window end %q must be after start %q", w.EndTime, w.StartTime)
	}

	var slots []Slot
	for ; current.Before(rangeEnd); current = current.Add(step) {
		if current.Add(duration).After(rangeEnd) {
			continue
		}
		slots = append(slots, Slot{
			Start:     current,
			Formatted: current.Format("15:04"),
		})
	}
	return slots, nil
}

// Constraints holds the event type timing rules applied by FilterSlots.
type Constraints struct {
	Duration     time.Duration
	BufferBefore time.Duration
	BufferAfter  time.Duration
	NotBefore    time.Time // minimum notice cutoff; slots starting earlier are dropped
	NotAfter     time.Time // booking horizon; zero value disables the check
}

// FilterSlots removes candidates that start before the notice cutoff, beyond
// the booking horizon, or whose buffer-expanded interval overlaps any blocking
// interval. Blocking intervals for existing bookings must already carry their
// own buffers; external busy intervals are passed as-is.
func FilterSlots(slots []Slot, c Constraints, blocking []Interval) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.Start.Before(c.NotBefore) {
			continue
		}
		if !c.NotAfter.IsZero() && s.Start.After(c.NotAfter) {
			continue
		}
		candidate := Expand(Interval{Start: s.Start, End: s.Start.Add(c.Duration)}, c.BufferBefore, c.BufferAfter)
		if OverlapsAny(candidate, blocking) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SortSlots orders slots ascending by start time. Generation is already
// ascending within a window; this keeps the union of split-shift windows
// ordered even if the windows themselves were stored out of order.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
}
