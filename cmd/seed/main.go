package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boklin/boklin/internal/booking"
	"github.com/boklin/boklin/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	hosts, err := seedHosts(context.Background(), pool, 25)
	if err != nil {
		log.Fatalf("seed hosts: %v", err)
	}
	eventTypes, err := seedEventTypes(context.Background(), pool, hosts)
	if err != nil {
		log.Fatalf("seed event types: %v", err)
	}
	if err := seedAvailability(context.Background(), pool, hosts); err != nil {
		log.Fatalf("seed availability: %v", err)
	}
	if err := seedBookings(context.Background(), pool, eventTypes, 200); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}

	log.Println("seed complete")
}

type seededEventType struct {
	id       uuid.UUID
	hostID   uuid.UUID
	duration int
}

func seedHosts(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d hosts", count)

	timezones := []string{
		"Europe/Stockholm",
		"Europe/London",
		"Europe/Berlin",
		"America/New_York",
		"Asia/Tokyo",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		username := fmt.Sprintf("%s-%d", strings.ToLower(gofakeit.Username()), i)
		tz := timezones[gofakeit.Number(0, len(timezones)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, username, timezone, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, name, gofakeit.Email(), username, tz)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("hosts seeded")
	return ids, nil
}

func seedEventTypes(ctx context.Context, pool *pgxpool.Pool, hosts []uuid.UUID) ([]seededEventType, error) {
	log.Printf("seeding event types for %d hosts", len(hosts))

	templates := []struct {
		title    string
		slug     string
		duration int
	}{
		{"Intro Call", "intro-call", 15},
		{"30 Minute Meeting", "30min", 30},
		{"Deep Dive", "deep-dive", 60},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var out []seededEventType
	for _, hostID := range hosts {
		for _, t := range templates {
			id := uuid.New()
			loc, err := json.Marshal(booking.EventLocation{
				Type: booking.LocationVideo,
				Link: gofakeit.URL(),
			})
			if err != nil {
				return nil, err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO event_types (
					id, user_id, title, slug, description, duration, location,
					is_active, requires_confirmation, buffer_before, buffer_after,
					min_notice, max_future, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, $9, $10, $11, $12, now(), now())
			`, id, hostID, t.title, t.slug, gofakeit.Sentence(8), t.duration, loc,
				gofakeit.Bool(), gofakeit.Number(0, 15), gofakeit.Number(0, 15),
				gofakeit.Number(1, 48), gofakeit.Number(14, 90))
			if err != nil {
				return nil, err
			}
			out = append(out, seededEventType{id: id, hostID: hostID, duration: t.duration})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("event types seeded")
	return out, nil
}

func seedAvailability(ctx context.Context, pool *pgxpool.Pool, hosts []uuid.UUID) error {
	log.Printf("seeding availability for %d hosts", len(hosts))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, hostID := range hosts {
		// Monday through Friday, a morning and an afternoon block.
		for day := 1; day <= 5; day++ {
			blocks := [][2]string{
				{"09:00", "12:00"},
				{"13:00", "17:00"},
			}
			for _, b := range blocks {
				_, err := tx.Exec(ctx, `
					INSERT INTO availability (id, user_id, day_of_week, start_time, end_time)
					VALUES ($1, $2, $3, $4, $5)
				`, uuid.New(), hostID, day, b[0], b[1])
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability seeded")
	return nil
}

func seedBookings(ctx context.Context, pool *pgxpool.Pool, eventTypes []seededEventType, count int) error {
	log.Printf("seeding %d bookings", count)

	now := time.Now().UTC()
	inserted := 0
	for attempts := 0; inserted < count && attempts < count*3; attempts++ {
		et := eventTypes[gofakeit.Number(0, len(eventTypes)-1)]

		day := now.AddDate(0, 0, gofakeit.Number(2, 30))
		hour := gofakeit.Number(9, 16)
		minute := []int{0, 15, 30, 45}[gofakeit.Number(0, 3)]
		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
		end := start.Add(time.Duration(et.duration) * time.Minute)

		status := booking.StatusConfirmed
		if gofakeit.Bool() {
			status = booking.StatusPending
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO bookings (
				id, event_type_id, user_id, guest_name, guest_email,
				start_time, end_time, status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		`, uuid.New(), et.id, et.hostID, gofakeit.Name(), gofakeit.Email(),
			start, end, string(status))
		if err != nil {
			// Overlap with a previously seeded booking, pick another slot.
			continue
		}
		inserted++
	}

	log.Printf("bookings seeded: %d", inserted)
	return nil
}
