package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/boklin/boklin/internal/booking"
	"github.com/boklin/boklin/internal/calendar"
)

type RouterConfig struct {
	Service *booking.Service
	Google  *calendar.GoogleSync
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Service, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public booking page endpoints
	r.Get("/hosts/{username}/event-types/{slug}/slots", getSlotsHandler(cfg.Service))
	r.Post("/bookings", createBookingHandler(cfg.Service))
	r.Post("/bookings/{id}/confirm", confirmBookingHandler(cfg.Service))
	r.Post("/bookings/{id}/cancel", cancelBookingHandler(cfg.Service))

	// Host-facing endpoints
	r.Get("/bookings", listBookingsHandler(cfg.Service))
	r.Put("/hosts/{id}/availability", replaceAvailabilityHandler(cfg.Service))
	r.Get("/hosts/{id}/calendar/google/connect", googleConnectHandler(cfg.Google))
	r.Get("/calendar/google/callback", googleCallbackHandler(cfg.Google))
	r.Delete("/hosts/{id}/calendar/google", googleDisconnectHandler(cfg.Google))

	return r
}
