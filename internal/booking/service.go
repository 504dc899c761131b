package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/boklin/boklin/internal/config"
	redisclient "github.com/boklin/boklin/internal/redis"
	"github.com/boklin/boklin/internal/schedule"
)

var (
	ErrEventTypeInactive = errors.New("event type is not active")
	ErrAlreadyCancelled  = errors.New("booking is already cancelled")
	ErrAlreadyConfirmed  = errors.New("booking is already confirmed")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	calendar CalendarSync
	notifier Notifier
	cfg      config.Config

	// clock hook for tests
	now func() time.Time

	// bumped whenever a busy-interval fetch fails and the slot query proceeds
	// without external calendar data
	calendarDegraded atomic.Int64
}

func NewService(repo Repository, locker redisclient.Locker, cal CalendarSync, notifier Notifier, cfg config.Config) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		calendar: cal,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CalendarDegradedCount reports how many slot queries have run without
// external busy data because the calendar fetch failed. Surfaced in the
// readiness endpoint so operators can spot a systemically failing sync.
func (s *Service) CalendarDegradedCount() int64 {
	return s.calendarDegraded.Load()
}

// GetPublicEventType resolves the public booking page address
// (username + event slug) to a host and an event type.
func (s *Service) GetPublicEventType(ctx context.Context, username, slug string) (*Host, *EventType, error) {
	host, err := s.repo.GetHostByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	et, err := s.repo.GetEventTypeBySlug(ctx, host.ID, slug)
	if err != nil {
		return nil, nil, err
	}
	return host, et, nil
}

// GetAvailableSlots computes the bookable start times for one host, event type
// and calendar day. A host with no availability configured for that weekday
// yields an empty slice, not an error. External calendar busy data is
// best-effort: a failed fetch only widens the result.
func (s *Service) GetAvailableSlots(ctx context.Context, hostID, eventTypeID uuid.UUID, date time.Time) ([]schedule.Slot, error) {
	host, err := s.repo.GetHostByID(ctx, hostID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(host.Timezone)
	if err != nil {
		log.Printf("host %s has invalid timezone %q, falling back to UTC", host.ID, host.Timezone)
		loc = time.UTC
	}

	// The date argument names a civil day; its clock and zone carry no
	// meaning. Re-anchoring the instant into loc would shift hosts west of
	// UTC onto the previous local day.
	year, month, day := date.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	windows, err := s.repo.ListAvailability(ctx, host.ID, int(dayStart.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	if len(windows) == 0 {
		return []schedule.Slot{}, nil
	}

	et, err := s.repo.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}

	// The bookings read and the external busy fetch are independent; run them
	// concurrently. The channel is buffered so an early return on the
	// bookings error cannot leak the goroutine.
	busyCh := make(chan []BusyInterval, 1)
	go func() {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.CalendarTimeout)
		defer cancel()

		busy, err := s.calendar.BusyIntervals(fetchCtx, host.ID, dayStart, dayEnd)
		if err != nil {
			s.calendarDegraded.Add(1)
			log.Printf("calendar busy fetch degraded host=%s date=%s err=%v", host.ID, dayStart.Format("2006-01-02"), err)
			busyCh <- nil
			return
		}
		busyCh <- busy
	}()

	bookings, err := s.repo.ListBookings(ctx, host.ID, dayStart, dayEnd, BlockingStatuses)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	busy := <-busyCh

	bufBefore := time.Duration(et.BufferBefore) * time.Minute
	bufAfter := time.Duration(et.BufferAfter) * time.Minute

	blocking := make([]schedule.Interval, 0, len(bookings)+len(busy))
	for _, b := range bookings {
		blocking = append(blocking, schedule.Expand(
			schedule.Interval{Start: b.StartTime, End: b.EndTime},
			bufBefore, bufAfter,
		))
	}
	for _, b := range busy {
		blocking = append(blocking, schedule.Interval{Start: b.Start, End: b.End})
	}

	// Stable window order keeps the slot union ascending.
	sort.Slice(windows, func(i, j int) bool { return windows[i].StartTime < windows[j].StartTime })

	duration := time.Duration(et.Duration) * time.Minute
	var candidates []schedule.Slot
	for _, w := range windows {
		slots, err := schedule.GenerateSlots(
			schedule.Window{StartTime: w.StartTime, EndTime: w.EndTime},
			dayStart, loc, duration, schedule.DefaultStep,
		)
		if err != nil {
			return nil, fmt.Errorf("generate slots for window %s-%s: %w", w.StartTime, w.EndTime, err)
		}
		candidates = append(candidates, slots...)
	}

	now := s.now()
	constraints := schedule.Constraints{
		Duration:     duration,
		BufferBefore: bufBefore,
		BufferAfter:  bufAfter,
		NotBefore:    now.Add(time.Duration(et.MinNotice) * time.Hour),
	}
	if et.MaxFuture > 0 {
		constraints.NotAfter = now.AddDate(0, 0, et.MaxFuture)
	}

	available := schedule.FilterSlots(candidates, constraints, blocking)
	schedule.SortSlots(available)
	return available, nil
}

// CreateBooking reserves a slot for a guest. The re-validation and insert run
// inside the per-host lock and a single storage transaction so that of two
// concurrent guests requesting overlapping times, at most one wins. Side
// effects after the insert (calendar event, emails) are best-effort and never
// roll the booking back.
func (s *Service) CreateBooking(ctx context.Context, eventTypeID uuid.UUID, guest GuestDetails, startTime time.Time) (*Booking, error) {
	if err := validateGuest(guest); err != nil {
		return nil, err
	}
	if startTime.IsZero() {
		v := &ValidationError{}
		v.add("start_time", "is required")
		return nil, v
	}

	et, err := s.repo.GetEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	if !et.IsActive {
		return nil, ErrEventTypeInactive
	}

	// Duration comes from the current config, never from anything the client
	// computed when it fetched slots.
	endTime := startTime.Add(time.Duration(et.Duration) * time.Minute)

	status := StatusConfirmed
	if et.RequiresConfirmation {
		status = StatusPending
	}

	b := &Booking{
		EventTypeID: et.ID,
		UserID:      et.UserID,
		GuestName:   guest.Name,
		GuestEmail:  guest.Email,
		StartTime:   startTime,
		EndTime:     endTime,
		Status:      status,
	}
	if guest.Phone != "" {
		b.GuestPhone = &guest.Phone
	}
	if guest.Notes != "" {
		b.GuestNotes = &guest.Notes
	}

	var created *Booking
	err = s.locker.WithHostLock(ctx, et.UserID, func(lockCtx context.Context) error {
		var err error
		created, err = s.repo.CreateBooking(lockCtx, b,
			time.Duration(et.BufferBefore)*time.Minute,
			time.Duration(et.BufferAfter)*time.Minute,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.afterCreate(ctx, created)
	return created, nil
}

// afterCreate runs the post-insert side effects: mirror to the host's external
// calendar, then notify guest and host. The booking is already persisted;
// every failure here is logged and swallowed.
func (s *Service) afterCreate(ctx context.Context, created *Booking) {
	detail, err := s.repo.GetBookingDetail(ctx, created.ID)
	if err != nil {
		log.Printf("load booking detail for side effects %s: %v", created.ID, err)
		return
	}

	eventID, err := s.calendar.CreateEvent(ctx, detail)
	if err != nil {
		log.Printf("create calendar event for booking %s: %v", created.ID, err)
	} else if eventID != "" {
		if err := s.repo.SetCalendarEventID(ctx, created.ID, eventID); err != nil {
			log.Printf("store calendar event id for booking %s: %v", created.ID, err)
		} else {
			created.CalendarEventID = &eventID
		}
	}

	s.notifySafely(ctx, "booking confirmation", func(c context.Context) error {
		return s.notifier.BookingConfirmation(c, detail)
	})
	s.notifySafely(ctx, "booking notification", func(c context.Context) error {
		return s.notifier.BookingNotification(c, detail)
	})
}

// CancelBooking is a host action. The external calendar event is removed
// best-effort before the status flips; the cancellation email follows after.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	existing, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	if existing.CalendarEventID != nil {
		if err := s.calendar.DeleteEvent(ctx, existing.UserID, *existing.CalendarEventID); err != nil {
			log.Printf("delete calendar event for booking %s: %v", id, err)
		}
	}

	cancelled, err := s.repo.CancelBooking(ctx, id, reason)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	if detail, err := s.repo.GetBookingDetail(ctx, id); err == nil {
		s.notifySafely(ctx, "booking cancellation", func(c context.Context) error {
			return s.notifier.BookingCancellation(c, detail, reason)
		})
	} else {
		log.Printf("load booking detail for cancellation email %s: %v", id, err)
	}

	return cancelled, nil
}

// ConfirmBooking moves a pending booking to confirmed.
func (s *Service) ConfirmBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	existing, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch existing.Status {
	case StatusConfirmed:
		return nil, ErrAlreadyConfirmed
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	}

	confirmed, err := s.repo.UpdateBookingStatus(ctx, id, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}

	if detail, err := s.repo.GetBookingDetail(ctx, id); err == nil {
		s.notifySafely(ctx, "booking confirmation", func(c context.Context) error {
			return s.notifier.BookingConfirmation(c, detail)
		})
	} else {
		log.Printf("load booking detail for confirmation email %s: %v", id, err)
	}

	return confirmed, nil
}

// ReplaceAvailability swaps the host's full weekly schedule.
func (s *Service) ReplaceAvailability(ctx context.Context, hostID uuid.UUID, windows []AvailabilityWindow) ([]AvailabilityWindow, error) {
	if err := validateWindows(windows); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetHostByID(ctx, hostID); err != nil {
		return nil, err
	}
	return s.repo.ReplaceAvailability(ctx, hostID, windows)
}

// ListBookings returns the host's bookings in a range, optionally filtered by
// status, for the dashboard listing.
func (s *Service) ListBookings(ctx context.Context, hostID uuid.UUID, from, to time.Time, statuses []BookingStatus) ([]Booking, error) {
	return s.repo.ListBookings(ctx, hostID, from, to, statuses)
}

// SendDueReminders is called periodically by the reminder worker. It emails
// guests of confirmed bookings starting within the configured lead time.
func (s *Service) SendDueReminders(ctx context.Context) error {
	due, err := s.repo.FindReminderDue(ctx, s.now(), s.cfg.ReminderLead)
	if err != nil {
		return fmt.Errorf("find due reminders: %w", err)
	}

	for _, b := range due {
		detail, err := s.repo.GetBookingDetail(ctx, b.ID)
		if err != nil {
			log.Printf("load booking detail for reminder %s: %v", b.ID, err)
			continue
		}
		if err := s.notifier.BookingReminder(ctx, detail); err != nil {
			log.Printf("send reminder for booking %s: %v", b.ID, err)
			continue
		}
		if err := s.repo.MarkReminderSent(ctx, b.ID, s.now()); err != nil {
			log.Printf("mark reminder sent for booking %s: %v", b.ID, err)
		}
	}

	return nil
}

func (s *Service) notifySafely(ctx context.Context, what string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		log.Printf("failed to send %s: %v", what, err)
	}
}
