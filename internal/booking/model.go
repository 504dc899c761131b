package booking

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// BlockingStatuses are the statuses that occupy time on the host's calendar.
// Cancelled and completed bookings never block a slot.
var BlockingStatuses = []BookingStatus{StatusPending, StatusConfirmed}

type Host struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Username  string
	Timezone  string // IANA zone name, e.g. "Europe/Stockholm"
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LocationType string

const (
	LocationInPerson LocationType = "in_person"
	LocationPhone    LocationType = "phone"
	LocationVideo    LocationType = "video"
	LocationCustom   LocationType = "custom"
)

// EventLocation is stored as a json column on event_types.
type EventLocation struct {
	Type         LocationType `json:"type"`
	Address      string       `json:"address,omitempty"`
	Link         string       `json:"link,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
}

// EventType is a host-owned bookable meeting definition. Timing fields are
// read-only inputs to the slot engine.
type EventType struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Title                string
	Slug                 string
	Description          *string
	Duration             int // minutes
	Location             *EventLocation
	IsActive             bool
	RequiresConfirmation bool
	BufferBefore         int // minutes
	BufferAfter          int // minutes
	MinNotice            int // hours the current moment must precede a slot
	MaxFuture            int // days beyond which no slot is offered
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AvailabilityWindow is one weekly recurring range of wall-clock time.
// A host may have several per weekday (split shifts).
type AvailabilityWindow struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	DayOfWeek int    // 0 = Sunday .. 6 = Saturday
	StartTime string // "HH:mm"
	EndTime   string // "HH:mm"
}

// Booking is a reserved interval. Start and end are frozen at creation;
// only status and cancellation metadata change afterwards.
type Booking struct {
	ID              uuid.UUID
	EventTypeID     uuid.UUID
	UserID          uuid.UUID
	GuestName       string
	GuestEmail      string
	GuestPhone      *string
	GuestNotes      *string
	StartTime       time.Time
	EndTime         time.Time
	Status          BookingStatus
	CalendarEventID *string
	CancelledAt     *time.Time
	CancelReason    *string
	ReminderSentAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GuestDetails is the guest-supplied part of a booking request.
type GuestDetails struct {
	Name  string
	Email string
	Phone string
	Notes string
}

// BookingDetail is a booking hydrated with its event type and host, as needed
// by email templates and calendar event creation.
type BookingDetail struct {
	Booking
	EventType *EventType
	Host      *Host
}
