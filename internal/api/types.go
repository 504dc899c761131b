package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/boklin/boklin/internal/booking"
)

type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	Formatted string    `json:"formatted"`
}

type SlotsResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

type CreateBookingRequest struct {
	EventTypeID string    `json:"event_type_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	StartTime   time.Time `json:"start_time"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type BookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	EventTypeID     uuid.UUID  `json:"event_type_id"`
	HostID          uuid.UUID  `json:"host_id"`
	GuestName       string     `json:"guest_name"`
	GuestEmail      string     `json:"guest_email"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	Status          string     `json:"status"`
	CalendarEventID *string    `json:"calendar_event_id,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelReason    *string    `json:"cancel_reason,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		EventTypeID:     b.EventTypeID,
		HostID:          b.UserID,
		GuestName:       b.GuestName,
		GuestEmail:      b.GuestEmail,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		Status:          string(b.Status),
		CalendarEventID: b.CalendarEventID,
		CancelledAt:     b.CancelledAt,
		CancelReason:    b.CancelReason,
	}
}

type AvailabilityWindowRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityWindowResponse struct {
	ID        uuid.UUID `json:"id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
