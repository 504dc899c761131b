package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHostNotFound      = errors.New("host not found")
	ErrEventTypeNotFound = errors.New("event type not found")
	ErrBookingNotFound   = errors.New("booking not found")

	// ErrSlotTaken is the write-time conflict: an overlapping non-cancelled
	// booking already exists for the host.
	ErrSlotTaken = errors.New("requested time is no longer available")
)

// Repository contains all DB interactions needed by the services.
type Repository interface {
	GetHostByID(ctx context.Context, id uuid.UUID) (*Host, error)
	GetHostByUsername(ctx context.Context, username string) (*Host, error)

	GetEventType(ctx context.Context, id uuid.UUID) (*EventType, error)
	GetEventTypeBySlug(ctx context.Context, hostID uuid.UUID, slug string) (*EventType, error)

	// Weekly schedule; ReplaceAvailability swaps the host's full schedule in
	// one transaction (delete-all-then-insert, no partial updates).
	ListAvailability(ctx context.Context, hostID uuid.UUID, dayOfWeek int) ([]AvailabilityWindow, error)
	ReplaceAvailability(ctx context.Context, hostID uuid.UUID, windows []AvailabilityWindow) ([]AvailabilityWindow, error)

	ListBookings(ctx context.Context, hostID uuid.UUID, from, to time.Time, statuses []BookingStatus) ([]Booking, error)

	// CreateBooking re-validates the requested interval against existing
	// blocking bookings (buffers applied, half-open overlap) and inserts,
	// both inside a single transaction. Returns ErrSlotTaken when the
	// interval is already occupied, including when the storage layer's
	// exclusion constraint rejects a concurrent insert.
	CreateBooking(ctx context.Context, b *Booking, bufferBefore, bufferAfter time.Duration) (*Booking, error)

	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingDetail(ctx context.Context, id uuid.UUID) (*BookingDetail, error)

	UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (*Booking, error)
	CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*Booking, error)
	SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error

	// Reminder worker support.
	FindReminderDue(ctx context.Context, now time.Time, lead time.Duration) ([]Booking, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CalendarSync mirrors bookings to an external calendar and reads busy
// intervals from it. Implementations must be safe to call for hosts without a
// connected calendar (no-op results, no error).
type CalendarSync interface {
	BusyIntervals(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]BusyInterval, error)
	CreateEvent(ctx context.Context, detail *BookingDetail) (string, error)
	DeleteEvent(ctx context.Context, hostID uuid.UUID, eventID string) error
}

// BusyInterval is an externally-sourced [start, end) occupied range. Ephemeral,
// fetched live per query, never persisted.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Notifier sends booking lifecycle emails. All calls are best-effort from the
// services' perspective; failures are logged and never propagated.
type Notifier interface {
	BookingConfirmation(ctx context.Context, detail *BookingDetail) error
	BookingNotification(ctx context.Context, detail *BookingDetail) error
	BookingCancellation(ctx context.Context, detail *BookingDetail, reason string) error
	BookingReminder(ctx context.Context, detail *BookingDetail) error
}
