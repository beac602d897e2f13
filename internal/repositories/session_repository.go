package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one persisted refresh-token row.
type Session struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}

// SessionRepository persists refresh tokens so sessions survive restarts
// and can be rotated on refresh.
type SessionRepository interface {
	CreateSession(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time) error
	GetSessionByToken(ctx context.Context, refreshToken string) (Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteSessionsForUser(ctx context.Context, userID string) error
}

// SessionRepo is a sqlx-backed SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) CreateSession(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, refresh_token, expires_at) VALUES ($1, $2, $3, $4)`,
		id, userID, refreshToken, expiresAt)
	return err
}

func (r *SessionRepo) GetSessionByToken(ctx context.Context, refreshToken string) (Session, error) {
	var session Session
	err := r.db.GetContext(ctx, &session,
		`SELECT id, user_id, refresh_token, expires_at, created_at FROM sessions WHERE refresh_token=$1`,
		refreshToken)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	return session, err
}

func (r *SessionRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token=$1`, refreshToken)
	return err
}

func (r *SessionRepo) DeleteSessionsForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID)
	return err
}
