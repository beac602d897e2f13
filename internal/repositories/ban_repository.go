package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"y-chat/internal/models"
)

// BanRepository manages ban rows. Bans are never physically deleted: unban
// flips is_active off.
type BanRepository interface {
	CreateBan(ctx context.Context, userID, bannedBy string, reason *string, expiresAt *time.Time) (models.UserBan, error)
	DeactivateBans(ctx context.Context, userID string) error
	ListBansForUser(ctx context.Context, userID string) ([]models.UserBan, error)
	ListActiveBans(ctx context.Context) ([]models.UserBan, error)
}

// BanRepo is a sqlx-backed BanRepository.
type BanRepo struct {
	db *sqlx.DB
}

// NewBanRepo constructs a BanRepo.
func NewBanRepo(db *sqlx.DB) *BanRepo {
	return &BanRepo{db: db}
}

const banColumns = `id, user_id, banned_by, reason, expires_at, is_active, created_at`

// CreateBan inserts a ban row. A nil expiry means permanent.
func (r *BanRepo) CreateBan(ctx context.Context, userID, bannedBy string, reason *string, expiresAt *time.Time) (models.UserBan, error) {
	var ban models.UserBan
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO user_bans (user_id, banned_by, reason, expires_at) VALUES ($1, $2, $3, $4)
         RETURNING `+banColumns,
		userID, bannedBy, reason, expiresAt).StructScan(&ban)
	return ban, err
}

// DeactivateBans flips every active ban for the user off.
func (r *BanRepo) DeactivateBans(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_bans SET is_active = FALSE, updated_at = NOW()
         WHERE user_id=$1 AND is_active = TRUE`, userID)
	return err
}

// ListBansForUser returns the user's active ban rows, newest first.
// Effectiveness (expiry) is evaluated by the caller against its own clock.
func (r *BanRepo) ListBansForUser(ctx context.Context, userID string) ([]models.UserBan, error) {
	var bans []models.UserBan
	err := r.db.SelectContext(ctx, &bans,
		`SELECT `+banColumns+` FROM user_bans
         WHERE user_id=$1 AND is_active = TRUE
         ORDER BY created_at DESC`, userID)
	return bans, err
}

// ListActiveBans returns every active ban row across users.
func (r *BanRepo) ListActiveBans(ctx context.Context) ([]models.UserBan, error) {
	var bans []models.UserBan
	err := r.db.SelectContext(ctx, &bans,
		`SELECT `+banColumns+` FROM user_bans WHERE is_active = TRUE ORDER BY created_at DESC`)
	return bans, err
}
