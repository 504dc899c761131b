package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/boklin/boklin/internal/booking"
	redisclient "github.com/boklin/boklin/internal/redis"
)

func getSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		slug := chi.URLParam(r, "slug")

		dateStr := r.URL.Query().Get("date")
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		host, et, err := svc.GetPublicEventType(r.Context(), username, slug)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		slots, err := svc.GetAvailableSlots(r.Context(), host.ID, et.ID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := SlotsResponse{Date: dateStr, Slots: make([]SlotResponse, 0, len(slots))}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, SlotResponse{StartTime: s.Start, Formatted: s.Formatted})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		eventTypeID, err := uuid.Parse(req.EventTypeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_event_type_id", "event_type_id must be a valid UUID")
			return
		}

		guest := booking.GuestDetails{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
			Notes: req.Notes,
		}

		b, err := svc.CreateBooking(r.Context(), eventTypeID, guest, req.StartTime)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBookingResponse(b))
	}
}

func confirmBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		b, err := svc.ConfirmBooking(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func cancelBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		var req CancelBookingRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		b, err := svc.CancelBooking(r.Context(), id, req.Reason)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func listBookingsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostID, err := uuid.Parse(r.URL.Query().Get("host_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_host_id", "host_id must be a valid UUID")
			return
		}

		now := time.Now()
		from := now.AddDate(0, -1, 0)
		to := now.AddDate(0, 3, 0)
		if v := r.URL.Query().Get("from"); v != "" {
			if from, err = time.Parse("2006-01-02", v); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
				return
			}
		}
		if v := r.URL.Query().Get("to"); v != "" {
			if to, err = time.Parse("2006-01-02", v); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
				return
			}
		}

		statuses := booking.BlockingStatuses
		if v := r.URL.Query().Get("status"); v != "" {
			statuses = []booking.BookingStatus{booking.BookingStatus(v)}
		}

		bookings, err := svc.ListBookings(r.Context(), hostID, from, to, statuses)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]BookingResponse, 0, len(bookings))
		for i := range bookings {
			resp = append(resp, toBookingResponse(&bookings[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func replaceAvailabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_host_id", "id must be a valid UUID")
			return
		}

		var req []AvailabilityWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		windows := make([]booking.AvailabilityWindow, 0, len(req))
		for _, wr := range req {
			windows = append(windows, booking.AvailabilityWindow{
				DayOfWeek: wr.DayOfWeek,
				StartTime: wr.StartTime,
				EndTime:   wr.EndTime,
			})
		}

		saved, err := svc.ReplaceAvailability(r.Context(), hostID, windows)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]AvailabilityWindowResponse, 0, len(saved))
		for _, s := range saved {
			resp = append(resp, AvailabilityWindowResponse{
				ID:        s.ID,
				DayOfWeek: s.DayOfWeek,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *booking.ValidationError

	switch {
	case errors.As(err, &vErr):
		writeValidationError(w, vErr.Fields)
	case errors.Is(err, booking.ErrHostNotFound):
		writeError(w, http.StatusNotFound, "host_not_found", err.Error())
	case errors.Is(err, booking.ErrEventTypeNotFound):
		writeError(w, http.StatusNotFound, "event_type_not_found", err.Error())
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrEventTypeInactive):
		writeError(w, http.StatusConflict, "event_type_inactive", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "this time is no longer available")
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "booking_already_cancelled", err.Error())
	case errors.Is(err, booking.ErrAlreadyConfirmed):
		writeError(w, http.StatusConflict, "booking_already_confirmed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
