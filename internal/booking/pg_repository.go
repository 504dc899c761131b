package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExclusionViolation is raised when the bookings_no_overlap exclusion
// constraint rejects an insert, i.e. a concurrent guest won the slot.
const pgExclusionViolation = "23P01"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanHost(row pgx.Row) (*Host, error) {
	var h Host
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Email,
		&h.Username,
		&h.Timezone,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHostNotFound
		}
		return nil, err
	}
	return &h, nil
}

func scanEventType(row pgx.Row) (*EventType, error) {
	var et EventType
	var locationJSON []byte

	err := row.Scan(
		&et.ID,
		&et.UserID,
		&et.Title,
		&et.Slug,
		&et.Description,
		&et.Duration,
		&locationJSON,
		&et.IsActive,
		&et.RequiresConfirmation,
		&et.BufferBefore,
		&et.BufferAfter,
		&et.MinNotice,
		&et.MaxFuture,
		&et.CreatedAt,
		&et.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventTypeNotFound
		}
		return nil, err
	}

	if len(locationJSON) > 0 {
		var loc EventLocation
		if err := json.Unmarshal(locationJSON, &loc); err != nil {
			return nil, fmt.Errorf("decode event type location: %w", err)
		}
		et.Location = &loc
	}
	return &et, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.EventTypeID,
		&b.UserID,
		&b.GuestName,
		&b.GuestEmail,
		&b.GuestPhone,
		&b.GuestNotes,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CalendarEventID,
		&b.CancelledAt,
		&b.CancelReason,
		&b.ReminderSentAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

const hostColumns = `id, name, email, username, timezone, created_at, updated_at`

const eventTypeColumns = `id, user_id, title, slug, description, duration, location,
	is_active, requires_confirmation, buffer_before, buffer_after, min_notice, max_future,
	created_at, updated_at`

const bookingColumns = `id, event_type_id, user_id, guest_name, guest_email, guest_phone,
	guest_notes, start_time, end_time, status, calendar_event_id, cancelled_at,
	cancel_reason, reminder_sent_at, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetHostByID(ctx context.Context, id uuid.UUID) (*Host, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+hostColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanHost(row)
}

func (r *PgRepository) GetHostByUsername(ctx context.Context, username string) (*Host, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+hostColumns+`
		FROM users
		WHERE username = $1
	`, username)
	return scanHost(row)
}

func (r *PgRepository) GetEventType(ctx context.Context, id uuid.UUID) (*EventType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE id = $1
	`, id)
	return scanEventType(row)
}

func (r *PgRepository) GetEventTypeBySlug(ctx context.Context, hostID uuid.UUID, slug string) (*EventType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE user_id = $1 AND slug = $2
	`, hostID, slug)
	return scanEventType(row)
}

func (r *PgRepository) ListAvailability(ctx context.Context, hostID uuid.UUID, dayOfWeek int) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, day_of_week, start_time, end_time
		FROM availability
		WHERE user_id = $1 AND day_of_week = $2
		ORDER BY start_time
	`, hostID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		var w AvailabilityWindow
		if err := rows.Scan(&w.ID, &w.UserID, &w.DayOfWeek, &w.StartTime, &w.EndTime); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (r *PgRepository) ReplaceAvailability(ctx context.Context, hostID uuid.UUID, windows []AvailabilityWindow) ([]AvailabilityWindow, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM availability WHERE user_id = $1`, hostID); err != nil {
		return nil, fmt.Errorf("clear availability: %w", err)
	}

	result := make([]AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		var saved AvailabilityWindow
		err := tx.QueryRow(ctx, `
			INSERT INTO availability (id, user_id, day_of_week, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, user_id, day_of_week, start_time, end_time
		`, uuid.New(), hostID, w.DayOfWeek, w.StartTime, w.EndTime).Scan(
			&saved.ID, &saved.UserID, &saved.DayOfWeek, &saved.StartTime, &saved.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("insert availability window: %w", err)
		}
		result = append(result, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListBookings(ctx context.Context, hostID uuid.UUID, from, to time.Time, statuses []BookingStatus) ([]Booking, error) {
	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE user_id = $1
		  AND start_time < $3
		  AND end_time > $2
		  AND status = ANY($4)
		ORDER BY start_time
	`, hostID, from, to, statusStrings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

// CreateBooking re-checks the requested interval and inserts in one
// transaction. The overlap test is half-open with both sides expanded by the
// event type's buffers, matching the read-time filter. The exclusion
// constraint on (user_id, time range) is the final arbiter for concurrent
// inserts that raced past the check on other instances.
func (r *PgRepository) CreateBooking(ctx context.Context, b *Booking, bufferBefore, bufferAfter time.Duration) (*Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bufBeforeMin := int(bufferBefore / time.Minute)
	bufAfterMin := int(bufferAfter / time.Minute)

	var occupied bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE user_id = $1
			  AND status IN ('pending', 'confirmed')
			  AND start_time - make_interval(mins => $4) < $3
			  AND end_time + make_interval(mins => $5) > $2
		)
	`, b.UserID,
		b.StartTime.Add(-bufferBefore), b.EndTime.Add(bufferAfter),
		bufBeforeMin, bufAfterMin,
	).Scan(&occupied)
	if err != nil {
		return nil, fmt.Errorf("check overlapping bookings: %w", err)
	}
	if occupied {
		return nil, ErrSlotTaken
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO bookings (id, event_type_id, user_id, guest_name, guest_email,
			guest_phone, guest_notes, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+bookingColumns+`
	`, uuid.New(), b.EventTypeID, b.UserID, b.GuestName, b.GuestEmail,
		b.GuestPhone, b.GuestNotes, b.StartTime, b.EndTime, b.Status)

	created, err := scanBooking(row)
	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}

func (r *PgRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) GetBookingDetail(ctx context.Context, id uuid.UUID) (*BookingDetail, error) {
	b, err := r.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	et, err := r.GetEventType(ctx, b.EventTypeID)
	if err != nil {
		return nil, err
	}
	host, err := r.GetHostByID(ctx, b.UserID)
	if err != nil {
		return nil, err
	}
	return &BookingDetail{Booking: *b, EventType: et, Host: host}, nil
}

func (r *PgRepository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+bookingColumns+`
	`, id, to, from)
	return scanBooking(row)
}

func (r *PgRepository) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*Booking, error) {
	var cancelReason *string
	if reason != "" {
		cancelReason = &reason
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
		    cancelled_at = now(),
		    cancel_reason = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'cancelled'
		RETURNING `+bookingColumns+`
	`, id, cancelReason)
	return scanBooking(row)
}

func (r *PgRepository) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET calendar_event_id = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, eventID)
	if err != nil {
		return fmt.Errorf("store calendar event id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *PgRepository) FindReminderDue(ctx context.Context, now time.Time, lead time.Duration) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'confirmed'
		  AND reminder_sent_at IS NULL
		  AND start_time > $1
		  AND start_time <= $2
	`, now, now.Add(lead))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET reminder_sent_at = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, at)
	return err
}
