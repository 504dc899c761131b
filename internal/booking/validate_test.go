package booking

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateGuest(t *testing.T) {
	good := GuestDetails{
		Name:  "Erik Svensson",
		Email: "erik@example.com",
		Phone: "+46 70 123 45 67",
		Notes: "See you then",
	}
	if err := validateGuest(good); err != nil {
		t.Fatalf("valid guest rejected: %v", err)
	}

	// Phone and notes are optional.
	if err := validateGuest(GuestDetails{Name: "Erik Svensson", Email: "erik@example.com"}); err != nil {
		t.Fatalf("minimal guest rejected: %v", err)
	}

	cases := []struct {
		name  string
		guest GuestDetails
		field string
	}{
		{"short name", GuestDetails{Name: "E", Email: "erik@example.com"}, "name"},
		{"whitespace name", GuestDetails{Name: "   ", Email: "erik@example.com"}, "name"},
		{"long name", GuestDetails{Name: strings.Repeat("a", 101), Email: "erik@example.com"}, "name"},
		{"missing email", GuestDetails{Name: "Erik Svensson"}, "email"},
		{"malformed email", GuestDetails{Name: "Erik Svensson", Email: "erik@@example"}, "email"},
		{"bad phone", GuestDetails{Name: "Erik Svensson", Email: "erik@example.com", Phone: "call me"}, "phone"},
		{"long notes", GuestDetails{Name: "Erik Svensson", Email: "erik@example.com", Notes: strings.Repeat("x", 501)}, "notes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateGuest(tc.guest)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.Fields[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, vErr.Fields)
			}
		})
	}
}

func TestValidateWindows(t *testing.T) {
	good := []AvailabilityWindow{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: 1, StartTime: "13:00", EndTime: "17:00"},
	}
	if err := validateWindows(good); err != nil {
		t.Fatalf("valid windows rejected: %v", err)
	}

	// An empty schedule is a legal way to take a host offline.
	if err := validateWindows(nil); err != nil {
		t.Fatalf("empty schedule rejected: %v", err)
	}

	cases := []struct {
		name    string
		windows []AvailabilityWindow
		field   string
	}{
		{"bad weekday", []AvailabilityWindow{{DayOfWeek: 7, StartTime: "09:00", EndTime: "12:00"}}, "windows[0].day_of_week"},
		{"bad start", []AvailabilityWindow{{DayOfWeek: 1, StartTime: "9am", EndTime: "12:00"}}, "windows[0].start_time"},
		{"bad end", []AvailabilityWindow{{DayOfWeek: 1, StartTime: "09:00", EndTime: "25:00"}}, "windows[0].end_time"},
		{"inverted", []AvailabilityWindow{{DayOfWeek: 1, StartTime: "12:00", EndTime: "09:00"}}, "windows[0].end_time"},
		{"empty", []AvailabilityWindow{{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00"}}, "windows[0].end_time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateWindows(tc.windows)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.Fields[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, vErr.Fields)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	v := &ValidationError{}
	v.add("email", "must be a valid email address")
	v.add("name", "must be between 2 and 100 characters")

	msg := v.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("message = %q", msg)
	}
	// Fields are reported in stable order.
	if !strings.Contains(msg, "email:") || !strings.Contains(msg, "name:") {
		t.Errorf("message missing fields: %q", msg)
	}
	if strings.Index(msg, "email:") > strings.Index(msg, "name:") {
		t.Errorf("fields not sorted: %q", msg)
	}
}
