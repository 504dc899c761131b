package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ProviderGoogle = "google"

// ErrNotConnected means the host has no calendar connection for the provider.
var ErrNotConnected = errors.New("no calendar connection")

// Connection is a host's stored OAuth grant for an external calendar.
type Connection struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Provider     string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// TokenStore persists calendar connections and their lazily refreshed tokens.
type TokenStore interface {
	GetConnection(ctx context.Context, hostID uuid.UUID, provider string) (*Connection, error)
	SaveConnection(ctx context.Context, conn *Connection) error
	UpdateTokens(ctx context.Context, hostID uuid.UUID, provider, accessToken string, expiresAt time.Time) error
	DeleteConnection(ctx context.Context, hostID uuid.UUID, provider string) error
}

type PgTokenStore struct {
	pool *pgxpool.Pool
}

func NewPgTokenStore(pool *pgxpool.Pool) *PgTokenStore {
	return &PgTokenStore{pool: pool}
}

func (s *PgTokenStore) GetConnection(ctx context.Context, hostID uuid.UUID, provider string) (*Connection, error) {
	var c Connection
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, provider, email, access_token, refresh_token, expires_at, created_at
		FROM calendar_connections
		WHERE user_id = $1 AND provider = $2
	`, hostID, provider).Scan(
		&c.ID,
		&c.UserID,
		&c.Provider,
		&c.Email,
		&c.AccessToken,
		&c.RefreshToken,
		&c.ExpiresAt,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotConnected
		}
		return nil, err
	}
	return &c, nil
}

func (s *PgTokenStore) SaveConnection(ctx context.Context, conn *Connection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO calendar_connections
			(id, user_id, provider, email, access_token, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id, provider) DO UPDATE
		SET email = EXCLUDED.email,
		    access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expires_at = EXCLUDED.expires_at
	`, conn.ID, conn.UserID, conn.Provider, conn.Email,
		conn.AccessToken, conn.RefreshToken, conn.ExpiresAt)
	return err
}

func (s *PgTokenStore) UpdateTokens(ctx context.Context, hostID uuid.UUID, provider, accessToken string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE calendar_connections
		SET access_token = $3,
		    expires_at = $4
		WHERE user_id = $1 AND provider = $2
	`, hostID, provider, accessToken, expiresAt)
	return err
}

func (s *PgTokenStore) DeleteConnection(ctx context.Context, hostID uuid.UUID, provider string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM calendar_connections
		WHERE user_id = $1 AND provider = $2
	`, hostID, provider)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotConnected
	}
	return nil
}
