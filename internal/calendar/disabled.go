package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/boklin/boklin/internal/booking"
)

// Disabled is the CalendarSync used when Google credentials are not
// configured: no busy data, no mirrored events.
type Disabled struct{}

func (Disabled) BusyIntervals(ctx context.Context, hostID uuid.UUID, from, to time.Time) ([]booking.BusyInterval, error) {
	return nil, nil
}

func (Disabled) CreateEvent(ctx context.Context, detail *booking.BookingDetail) (string, error) {
	return "", nil
}

func (Disabled) DeleteEvent(ctx context.Context, hostID uuid.UUID, eventID string) error {
	return nil
}
