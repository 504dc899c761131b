package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/boklin/boklin/internal/booking"
)

type sentMail struct {
	to      string
	replyTo string
	subject string
	body    string
}

type recordingSender struct {
	sent []sentMail
}

func (s *recordingSender) Send(to, replyTo, subject, body string) error {
	s.sent = append(s.sent, sentMail{to: to, replyTo: replyTo, subject: subject, body: body})
	return nil
}

func testDetail() *booking.BookingDetail {
	phone := "+46 70 123 45 67"
	notes := "Looking forward to it"
	return &booking.BookingDetail{
		Booking: booking.Booking{
			ID:         uuid.New(),
			GuestName:  "Erik Svensson",
			GuestEmail: "erik@example.com",
			GuestPhone: &phone,
			GuestNotes: &notes,
			StartTime:  time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			EndTime:    time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
			Status:     booking.StatusConfirmed,
		},
		EventType: &booking.EventType{
			Title:    "30 Minute Meeting",
			Duration: 30,
			Location: &booking.EventLocation{
				Type: booking.LocationVideo,
				Link: "https://meet.example.com/abc",
			},
		},
		Host: &booking.Host{
			Name:     "Maja Lund",
			Email:    "maja@example.com",
			Timezone: "UTC",
		},
	}
}

func TestBookingConfirmation(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender)

	if err := m.BookingConfirmation(context.Background(), testDetail()); err != nil {
		t.Fatalf("BookingConfirmation: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.sent))
	}

	mail := sender.sent[0]
	if mail.to != "erik@example.com" {
		t.Errorf("to = %s, want guest address", mail.to)
	}
	if mail.replyTo != "maja@example.com" {
		t.Errorf("replyTo = %s, want host address", mail.replyTo)
	}
	if !strings.Contains(mail.subject, "Booking confirmed") {
		t.Errorf("subject = %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Monday 2 March 2026, 10:00") {
		t.Errorf("body missing formatted time:\n%s", mail.body)
	}
	if !strings.Contains(mail.body, "https://meet.example.com/abc") {
		t.Errorf("body missing location:\n%s", mail.body)
	}
}

func TestBookingConfirmation_PendingWording(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender)

	detail := testDetail()
	detail.Status = booking.StatusPending

	if err := m.BookingConfirmation(context.Background(), detail); err != nil {
		t.Fatalf("BookingConfirmation: %v", err)
	}

	mail := sender.sent[0]
	if !strings.Contains(mail.subject, "Booking request received") {
		t.Errorf("subject = %q, want pending wording", mail.subject)
	}
	if !strings.Contains(mail.body, "awaiting confirmation") {
		t.Errorf("body missing pending wording:\n%s", mail.body)
	}
}

func TestBookingNotification_GoesToHost(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender)

	if err := m.BookingNotification(context.Background(), testDetail()); err != nil {
		t.Fatalf("BookingNotification: %v", err)
	}

	mail := sender.sent[0]
	if mail.to != "maja@example.com" {
		t.Errorf("to = %s, want host address", mail.to)
	}
	if !strings.Contains(mail.body, "+46 70 123 45 67") {
		t.Errorf("body missing guest phone:\n%s", mail.body)
	}
	if !strings.Contains(mail.body, "Looking forward to it") {
		t.Errorf("body missing guest notes:\n%s", mail.body)
	}
}

func TestBookingCancellation_IncludesReason(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender)

	if err := m.BookingCancellation(context.Background(), testDetail(), "host unavailable"); err != nil {
		t.Fatalf("BookingCancellation: %v", err)
	}

	mail := sender.sent[0]
	if !strings.Contains(mail.subject, "Booking cancelled") {
		t.Errorf("subject = %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Reason: host unavailable") {
		t.Errorf("body missing reason:\n%s", mail.body)
	}
}

func TestBookingReminder(t *testing.T) {
	sender := &recordingSender{}
	m := NewMailer(sender)

	if err := m.BookingReminder(context.Background(), testDetail()); err != nil {
		t.Fatalf("BookingReminder: %v", err)
	}

	mail := sender.sent[0]
	if !strings.Contains(mail.subject, "Reminder: 30 Minute Meeting") {
		t.Errorf("subject = %q", mail.subject)
	}
}

func TestFormatWhen_HostTimezone(t *testing.T) {
	start := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

	if _, err := time.LoadLocation("Europe/Stockholm"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	got := formatWhen(start, "Europe/Stockholm")
	if !strings.Contains(got, "14:00") {
		t.Errorf("formatWhen = %q, want 14:00 local time", got)
	}

	// Unknown zones fall back to UTC rather than failing the send.
	got = formatWhen(start, "Not/AZone")
	if !strings.Contains(got, "12:00") {
		t.Errorf("formatWhen fallback = %q, want UTC time", got)
	}
}
