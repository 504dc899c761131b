package schedule

import (
	"testing"
	"time"
)

func iv(startMin, endMin int) Interval {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return Interval{
		Start: base.Add(time.Duration(startMin) * time.Minute),
		End:   base.Add(time.Duration(endMin) * time.Minute),
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	// Back-to-back intervals do not overlap.
	if Overlaps(iv(0, 30), iv(30, 60)) {
		t.Fatal("adjacent intervals must not overlap")
	}
	if !Overlaps(iv(0, 31), iv(30, 60)) {
		t.Fatal("one minute of intersection must overlap")
	}
	if !Overlaps(iv(10, 20), iv(10, 20)) {
		t.Fatal("an interval must overlap itself")
	}
	if !Overlaps(iv(0, 60), iv(20, 30)) {
		t.Fatal("containment must overlap")
	}
	if Overlaps(iv(0, 10), iv(20, 30)) {
		t.Fatal("disjoint intervals must not overlap")
	}
}

func TestExpand(t *testing.T) {
	got := Expand(iv(60, 90), 10*time.Minute, 5*time.Minute)
	want := iv(50, 95)
	if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) {
		t.Fatalf("expand: got [%s, %s), want [%s, %s)", got.Start, got.End, want.Start, want.End)
	}
}

// Expanding A and testing against B must reject the same pairs as expanding B
// and testing against unexpanded A: buffers enforce a minimum gap either way.
func TestExpand_BufferSymmetry(t *testing.T) {
	before, after := 10*time.Minute, 10*time.Minute
	pairs := [][2]Interval{
		{iv(0, 30), iv(35, 60)},  // gap smaller than buffer
		{iv(0, 30), iv(50, 80)},  // gap larger than buffer
		{iv(0, 30), iv(30, 60)},  // adjacent
		{iv(0, 30), iv(10, 40)},  // overlapping outright
		{iv(0, 30), iv(100, 130)}, // far apart
	}
	for i, p := range pairs {
		a, b := p[0], p[1]
		left := Overlaps(Expand(a, before, after), b)
		right := Overlaps(a, Expand(b, before, after))
		if left != right {
			t.Fatalf("pair %d: expand-a=%v expand-b=%v", i, left, right)
		}
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	w := Window{StartTime: "09:00", EndTime: "17:00"}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	first, err := GenerateSlots(w, date, time.UTC, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := GenerateSlots(w, date, time.UTC, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) {
			t.Fatalf("slot %d differs: %s vs %s", i, first[i].Start, second[i].Start)
		}
	}
	// 09:00 through 16:30 at 15-minute steps.
	if len(first) != 31 {
		t.Fatalf("expected 31 slots, got %d", len(first))
	}
	if first[0].Formatted != "09:00" || first[len(first)-1].Formatted != "16:30" {
		t.Fatalf("unexpected bounds: %s .. %s", first[0].Formatted, first[len(first)-1].Formatted)
	}
}

func TestGenerateSlots_DurationMustFit(t *testing.T) {
	w := Window{StartTime: "09:00", EndTime: "10:00"}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := GenerateSlots(w, date, time.UTC, 45*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 09:00 and 09:15 fit a 45-minute meeting before 10:00; 09:30 does not.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[1].Formatted != "09:15" {
		t.Fatalf("expected last slot 09:15, got %s", slots[1].Formatted)
	}
}

func TestGenerateSlots_HostTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := Window{StartTime: "09:00", EndTime: "10:00"}
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, loc)

	slots, err := GenerateSlots(w, date, loc, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	// Wall clock 09:00 CEST is 07:00 UTC.
	if got := slots[0].Start.UTC().Hour(); got != 7 {
		t.Fatalf("expected 07:00 UTC, got hour %d", got)
	}
	if slots[0].Formatted != "09:00" {
		t.Fatalf("formatted label must be host wall clock, got %s", slots[0].Formatted)
	}
}

func TestGenerateSlots_CivilDateWestOfUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	w := Window{StartTime: "09:00", EndTime: "10:00"}
	// UTC midnight of the requested day, still the prior evening in New York.
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := GenerateSlots(w, date, loc, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	local := slots[0].Start.In(loc)
	if local.Year() != 2026 || local.Month() != time.March || local.Day() != 2 {
		t.Fatalf("slot anchored to %s local, want 2026-03-02", local.Format("2006-01-02"))
	}
	if local.Hour() != 9 {
		t.Fatalf("expected 09:00 New York wall clock, got %s", local.Format("15:04"))
	}
}

func TestGenerateSlots_RejectsBadWindow(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if _, err := GenerateSlots(Window{StartTime: "17:00", EndTime: "09:00"}, date, time.UTC, 30*time.Minute, DefaultStep); err == nil {
		t.Fatal("expected error for inverted window")
	}
	if _, err := GenerateSlots(Window{StartTime: "9am", EndTime: "17:00"}, date, time.UTC, 30*time.Minute, DefaultStep); err == nil {
		t.Fatal("expected error for malformed clock time")
	}
}

func TestFilterSlots_MinimumNoticeBoundary(t *testing.T) {
	w := Window{StartTime: "09:00", EndTime: "12:00"}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(w, date, time.UTC, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cutoff := date.Add(10 * time.Hour) // 10:00
	kept := FilterSlots(slots, Constraints{Duration: 30 * time.Minute, NotBefore: cutoff}, nil)

	// A slot starting exactly at the cutoff is accepted, one step earlier is not.
	if kept[0].Formatted != "10:00" {
		t.Fatalf("expected first surviving slot 10:00, got %s", kept[0].Formatted)
	}
	for _, s := range kept {
		if s.Start.Before(cutoff) {
			t.Fatalf("slot %s violates minimum notice", s.Formatted)
		}
	}

	// One minute before the cutoff is rejected.
	early := []Slot{{Start: cutoff.Add(-time.Minute), Formatted: "09:59"}}
	if got := FilterSlots(early, Constraints{Duration: 30 * time.Minute, NotBefore: cutoff}, nil); len(got) != 0 {
		t.Fatalf("slot one minute before cutoff must be rejected, got %d", len(got))
	}
}

func TestFilterSlots_BookingHorizon(t *testing.T) {
	w := Window{StartTime: "09:00", EndTime: "12:00"}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(w, date, time.UTC, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	horizon := date.Add(10 * time.Hour) // 10:00
	kept := FilterSlots(slots, Constraints{Duration: 30 * time.Minute, NotAfter: horizon}, nil)

	last := kept[len(kept)-1]
	if last.Formatted != "10:00" {
		t.Fatalf("expected last slot at horizon 10:00, got %s", last.Formatted)
	}
}

// The scenario from the booking flow: Monday 09:00-12:00, 30-minute meetings,
// no buffers, one confirmed booking 10:00-10:30. Every candidate whose
// half-open interval touches the booking falls away; the back-to-back
// neighbors survive.
func TestFilterSlots_ExistingBookingScenario(t *testing.T) {
	w := Window{StartTime: "09:00", EndTime: "12:00"}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday
	slots, err := GenerateSlots(w, date, time.UTC, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(slots) != 11 {
		t.Fatalf("expected 11 candidates, got %d", len(slots))
	}

	booking := Interval{
		Start: date.Add(10 * time.Hour),
		End:   date.Add(10*time.Hour + 30*time.Minute),
	}
	kept := FilterSlots(slots, Constraints{Duration: 30 * time.Minute}, []Interval{booking})

	if len(kept) != 8 {
		t.Fatalf("expected 8 surviving slots, got %d", len(kept))
	}
	for _, s := range kept {
		switch s.Formatted {
		case "09:45", "10:00", "10:15":
			t.Fatalf("slot %s should have been filtered", s.Formatted)
		}
	}
	// 09:30 ends exactly at 10:00 and 10:30 starts exactly at the booking end;
	// half-open semantics keep both.
	var have0930, have1030 bool
	for _, s := range kept {
		if s.Formatted == "09:30" {
			have0930 = true
		}
		if s.Formatted == "10:30" {
			have1030 = true
		}
	}
	if !have0930 || !have1030 {
		t.Fatalf("back-to-back slots must survive: 09:30=%v 10:30=%v", have0930, have1030)
	}
}

func TestFilterSlots_BuffersBlockAdjacent(t *testing.T) {
	w := Window{StartTime: "09:00", EndTime: "12:00"}
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slots, err := GenerateSlots(w, date, time.UTC, 30*time.Minute, DefaultStep)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Booking 10:00-10:30 expanded by its own 15-minute buffers.
	booking := Expand(Interval{
		Start: date.Add(10 * time.Hour),
		End:   date.Add(10*time.Hour + 30*time.Minute),
	}, 15*time.Minute, 15*time.Minute)

	kept := FilterSlots(slots, Constraints{
		Duration:     30 * time.Minute,
		BufferBefore: 15 * time.Minute,
		BufferAfter:  15 * time.Minute,
	}, []Interval{booking})

	for _, s := range kept {
		switch s.Formatted {
		case "09:15", "09:30", "09:45", "10:00", "10:15", "10:30", "10:45":
			t.Fatalf("slot %s should be blocked by buffers", s.Formatted)
		}
	}
}

func TestSortSlots(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	slots := []Slot{
		{Start: date.Add(14 * time.Hour), Formatted: "14:00"},
		{Start: date.Add(9 * time.Hour), Formatted: "09:00"},
		{Start: date.Add(10 * time.Hour), Formatted: "10:00"},
	}
	SortSlots(slots)
	if slots[0].Formatted != "09:00" || slots[2].Formatted != "14:00" {
		t.Fatalf("slots not sorted: %v", slots)
	}
}
