package email

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/boklin/boklin/internal/booking"
)

// Mailer renders and sends booking lifecycle emails. It implements
// booking.Notifier; callers treat every send as best-effort.
type Mailer struct {
	sender Sender
}

func NewMailer(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

type templateData struct {
	GuestName    string
	GuestEmail   string
	GuestPhone   string
	GuestNotes   string
	HostName     string
	HostEmail    string
	EventTitle   string
	When         string
	Duration     int
	Location     string
	CancelReason string
	Pending      bool
}

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`Hi {{.GuestName}},

{{if .Pending}}Your booking request has been received and is awaiting confirmation from {{.HostName}}.{{else}}Your booking is confirmed.{{end}}

  {{.EventTitle}} with {{.HostName}}
  {{.When}} ({{.Duration}} minutes)
{{- if .Location}}
  Location: {{.Location}}
{{- end}}

If you have questions, reply to this email to reach {{.HostName}} directly.
`))

	notificationTmpl = template.Must(template.New("notification").Parse(`Hi {{.HostName}},

{{if .Pending}}You have a new booking request waiting for your confirmation.{{else}}You have a new booking.{{end}}

  {{.EventTitle}}
  {{.When}} ({{.Duration}} minutes)

Guest: {{.GuestName}} <{{.GuestEmail}}>
{{- if .GuestPhone}}
Phone: {{.GuestPhone}}
{{- end}}
{{- if .GuestNotes}}

Notes:
{{.GuestNotes}}
{{- end}}
`))

	cancellationTmpl = template.Must(template.New("cancellation").Parse(`Hi {{.GuestName}},

Your booking has been cancelled.

  {{.EventTitle}} with {{.HostName}}
  {{.When}} ({{.Duration}} minutes)
{{- if .CancelReason}}

Reason: {{.CancelReason}}
{{- end}}

You can book a new time with {{.HostName}} at any point.
`))

	reminderTmpl = template.Must(template.New("reminder").Parse(`Hi {{.GuestName}},

This is a reminder of your upcoming booking.

  {{.EventTitle}} with {{.HostName}}
  {{.When}} ({{.Duration}} minutes)
{{- if .Location}}
  Location: {{.Location}}
{{- end}}
`))
)

func (m *Mailer) BookingConfirmation(ctx context.Context, detail *booking.BookingDetail) error {
	data := dataFor(detail)
	subject := fmt.Sprintf("Booking confirmed: %s with %s", data.EventTitle, data.HostName)
	if data.Pending {
		subject = fmt.Sprintf("Booking request received: %s", data.EventTitle)
	}
	body, err := render(confirmationTmpl, data)
	if err != nil {
		return err
	}
	return m.sender.Send(detail.GuestEmail, detail.Host.Email, subject, body)
}

func (m *Mailer) BookingNotification(ctx context.Context, detail *booking.BookingDetail) error {
	data := dataFor(detail)
	subject := fmt.Sprintf("New booking: %s from %s", data.EventTitle, data.GuestName)
	if data.Pending {
		subject = fmt.Sprintf("New booking request: %s from %s", data.EventTitle, data.GuestName)
	}
	body, err := render(notificationTmpl, data)
	if err != nil {
		return err
	}
	return m.sender.Send(detail.Host.Email, detail.GuestEmail, subject, body)
}

func (m *Mailer) BookingCancellation(ctx context.Context, detail *booking.BookingDetail, reason string) error {
	data := dataFor(detail)
	if reason != "" {
		data.CancelReason = reason
	}
	subject := fmt.Sprintf("Booking cancelled: %s", data.EventTitle)
	body, err := render(cancellationTmpl, data)
	if err != nil {
		return err
	}
	return m.sender.Send(detail.GuestEmail, detail.Host.Email, subject, body)
}

func (m *Mailer) BookingReminder(ctx context.Context, detail *booking.BookingDetail) error {
	data := dataFor(detail)
	subject := fmt.Sprintf("Reminder: %s with %s", data.EventTitle, data.HostName)
	body, err := render(reminderTmpl, data)
	if err != nil {
		return err
	}
	return m.sender.Send(detail.GuestEmail, detail.Host.Email, subject, body)
}

func dataFor(detail *booking.BookingDetail) templateData {
	data := templateData{
		GuestName:  detail.GuestName,
		GuestEmail: detail.GuestEmail,
		HostName:   detail.Host.Name,
		HostEmail:  detail.Host.Email,
		EventTitle: detail.EventType.Title,
		When:       formatWhen(detail.StartTime, detail.Host.Timezone),
		Duration:   detail.EventType.Duration,
		Location:   locationLine(detail.EventType.Location),
		Pending:    detail.Status == booking.StatusPending,
	}
	if detail.GuestPhone != nil {
		data.GuestPhone = *detail.GuestPhone
	}
	if detail.GuestNotes != nil {
		data.GuestNotes = *detail.GuestNotes
	}
	if detail.CancelReason != nil {
		data.CancelReason = *detail.CancelReason
	}
	return data
}

func formatWhen(t time.Time, tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday 2 January 2006, 15:04")
}

func locationLine(loc *booking.EventLocation) string {
	if loc == nil {
		return ""
	}
	switch loc.Type {
	case booking.LocationInPerson:
		return loc.Address
	case booking.LocationVideo:
		return loc.Link
	case booking.LocationPhone:
		if loc.Phone != "" {
			return "Tel: " + loc.Phone
		}
	case booking.LocationCustom:
		return loc.Instructions
	}
	return ""
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}
