package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boklin/boklin/internal/booking"
	redisclient "github.com/boklin/boklin/internal/redis"
)

func TestHandleServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{booking.ErrHostNotFound, http.StatusNotFound, "host_not_found"},
		{booking.ErrEventTypeNotFound, http.StatusNotFound, "event_type_not_found"},
		{booking.ErrBookingNotFound, http.StatusNotFound, "booking_not_found"},
		{booking.ErrEventTypeInactive, http.StatusConflict, "event_type_inactive"},
		{booking.ErrSlotTaken, http.StatusConflict, "slot_taken"},
		{booking.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
		{redisclient.ErrLockNotAcquired, http.StatusConflict, "slot_being_booked"},
		{booking.ErrAlreadyCancelled, http.StatusConflict, "booking_already_cancelled"},
		{booking.ErrAlreadyConfirmed, http.StatusConflict, "booking_already_confirmed"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{fmt.Errorf("cancel booking: %w", booking.ErrBookingNotFound), http.StatusNotFound, "booking_not_found"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if resp.Error != tc.code {
				t.Fatalf("error code = %q, want %q", resp.Error, tc.code)
			}
		})
	}
}

func TestHandleServiceError_Validation(t *testing.T) {
	vErr := &booking.ValidationError{}
	vErr.Fields = map[string]string{"email": "must be a valid email address"}

	rec := httptest.NewRecorder()
	handleServiceError(rec, vErr)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error != "validation_failed" {
		t.Fatalf("error code = %q", resp.Error)
	}
	if resp.Fields["email"] == "" {
		t.Fatalf("fields not carried through: %v", resp.Fields)
	}
}

func TestWriteJSON_ContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]string{"status": "ok"})

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
