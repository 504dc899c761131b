package booking

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/boklin/boklin/internal/schedule"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s-]{6,20}$`)
)

// ValidationError carries field-level issues for malformed guest input or
// malformed availability windows.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("validation failed:")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s: %s;", k, v.Fields[k])
	}
	return strings.TrimSuffix(b.String(), ";")
}

func (v *ValidationError) add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	v.Fields[field] = message
}

func (v *ValidationError) orNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func validateGuest(g GuestDetails) error {
	var v ValidationError

	name := strings.TrimSpace(g.Name)
	if len(name) < 2 || len(name) > 100 {
		v.add("name", "must be between 2 and 100 characters")
	}
	if !emailPattern.MatchString(g.Email) {
		v.add("email", "must be a valid email address")
	}
	if g.Phone != "" && !phonePattern.MatchString(g.Phone) {
		v.add("phone", "must be a valid phone number")
	}
	if len(g.Notes) > 500 {
		v.add("notes", "must be at most 500 characters")
	}

	return v.orNil()
}

func validateWindows(windows []AvailabilityWindow) error {
	var v ValidationError

	for i, w := range windows {
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			v.add(fmt.Sprintf("windows[%d].day_of_week", i), "must be between 0 (Sunday) and 6 (Saturday)")
		}
		if _, _, err := schedule.ParseClock(w.StartTime); err != nil {
			v.add(fmt.Sprintf("windows[%d].start_time", i), "must be HH:mm")
			continue
		}
		if _, _, err := schedule.ParseClock(w.EndTime); err != nil {
			v.add(fmt.Sprintf("windows[%d].end_time", i), "must be HH:mm")
			continue
		}
		if w.StartTime >= w.EndTime {
			v.add(fmt.Sprintf("windows[%d].end_time", i), "must be after start_time")
		}
	}

	return v.orNil()
}
