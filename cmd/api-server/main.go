package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/boklin/boklin/internal/api"
	"github.com/boklin/boklin/internal/booking"
	"github.com/boklin/boklin/internal/calendar"
	"github.com/boklin/boklin/internal/config"
	"github.com/boklin/boklin/internal/db"
	"github.com/boklin/boklin/internal/email"
	redisclient "github.com/boklin/boklin/internal/redis"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		log.Fatalf("schema migration error: %v", err)
	}

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisHostLocker(rdb, cfg.LockTTL)

	var calendarSync booking.CalendarSync = calendar.Disabled{}
	var google *calendar.GoogleSync
	if cfg.GoogleConfigured() {
		store := calendar.NewPgTokenStore(pgPool)
		redirectURL := cfg.AppBaseURL + "/calendar/google/callback"
		google = calendar.NewGoogleSync(cfg.GoogleClientID, cfg.GoogleClientSecret, redirectURL, store)
		calendarSync = google
		log.Println("google calendar sync enabled")
	} else {
		log.Println("google calendar sync disabled, missing credentials")
	}

	sender := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom)
	mailer := email.NewMailer(sender)

	svc := booking.NewService(repo, locker, calendarSync, mailer, cfg)

	router := api.NewRouter(api.RouterConfig{
		Service: svc,
		Google:  google,
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
