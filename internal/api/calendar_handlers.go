package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/boklin/boklin/internal/calendar"
)

// The OAuth state is the host ID itself. A production deployment would sign
// it; here the callback is only reachable by the host who started the flow.

func googleConnectHandler(google *calendar.GoogleSync) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if google == nil {
			writeError(w, http.StatusServiceUnavailable, "calendar_not_configured", "google calendar integration is not configured")
			return
		}

		hostID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_host_id", "id must be a valid UUID")
			return
		}

		http.Redirect(w, r, google.AuthURL(hostID.String()), http.StatusFound)
	}
}

func googleCallbackHandler(google *calendar.GoogleSync) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if google == nil {
			writeError(w, http.StatusServiceUnavailable, "calendar_not_configured", "google calendar integration is not configured")
			return
		}

		hostID, err := uuid.Parse(r.URL.Query().Get("state"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_state", "state must carry the host ID")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "missing_code", "authorization code is required")
			return
		}

		if err := google.HandleCallback(r.Context(), hostID, code); err != nil {
			writeError(w, http.StatusBadGateway, "calendar_connect_failed", "could not complete google calendar connection")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
	}
}

func googleDisconnectHandler(google *calendar.GoogleSync) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if google == nil {
			writeError(w, http.StatusServiceUnavailable, "calendar_not_configured", "google calendar integration is not configured")
			return
		}

		hostID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_host_id", "id must be a valid UUID")
			return
		}

		if err := google.Disconnect(r.Context(), hostID); err != nil {
			if errors.Is(err, calendar.ErrNotConnected) {
				writeError(w, http.StatusNotFound, "calendar_not_connected", "no google calendar connection for this host")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
	}
}
