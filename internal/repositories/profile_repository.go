package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"y-chat/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository abstracts profile persistence.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, id, username, email, passwordHash string) (models.Profile, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (models.Profile, error)
	GetCredentials(ctx context.Context, username string) (string, string, error)
	ListOtherProfiles(ctx context.Context, excludeID string) ([]models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	BulkProfiles(ctx context.Context, ids []string) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, nickname, avatarPublicID *string) error
	SetNickname(ctx context.Context, userID string, nickname string) error
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// ProfileRepo is a sqlx-backed ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = `id, username, nickname, avatar_public_id, is_admin, created_at`

// CreateProfile stores a new profile with its credentials.
func (r *ProfileRepo) CreateProfile(ctx context.Context, id, username, email, passwordHash string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO profiles (id, username, email, password_hash) VALUES ($1, $2, $3, $4)
         RETURNING `+profileColumns,
		id, username, email, passwordHash).StructScan(&profile)
	return profile, err
}

// GetProfile fetches a profile by id.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetProfileByUsername fetches a profile by its immutable username.
func (r *ProfileRepo) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT `+profileColumns+` FROM profiles WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, err
}

// GetCredentials returns the user id and password hash for a username.
func (r *ProfileRepo) GetCredentials(ctx context.Context, username string) (string, string, error) {
	var row struct {
		ID           string `db:"id"`
		PasswordHash string `db:"password_hash"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT id, password_hash FROM profiles WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrProfileNotFound
	}
	return row.ID, row.PasswordHash, err
}

// ListOtherProfiles returns every profile except the given one, the contact
// list shown next to the room list.
func (r *ProfileRepo) ListOtherProfiles(ctx context.Context, excludeID string) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM profiles WHERE id<>$1 ORDER BY username ASC`, excludeID)
	return profiles, err
}

// ListProfiles returns every profile ordered by username.
func (r *ProfileRepo) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT `+profileColumns+` FROM profiles ORDER BY username ASC`)
	return profiles, err
}

// BulkProfiles fetches several profiles in one call.
func (r *ProfileRepo) BulkProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+profileColumns+` FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var profiles []models.Profile
	err = r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...)
	return profiles, err
}

// UpdateProfile sets nickname and avatar for the owner. Nil fields keep
// their current value; username stays immutable.
func (r *ProfileRepo) UpdateProfile(ctx context.Context, userID string, nickname, avatarPublicID *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET nickname=COALESCE($2, nickname), avatar_public_id=COALESCE($3, avatar_public_id) WHERE id=$1`,
		userID, nickname, avatarPublicID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// SetNickname renames a user, the moderation variant of UpdateProfile.
func (r *ProfileRepo) SetNickname(ctx context.Context, userID string, nickname string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET nickname=$2 WHERE id=$1`, userID, nickname)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// IsAdmin reads the admin flag for the identity.
func (r *ProfileRepo) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := r.db.GetContext(ctx, &isAdmin, `SELECT is_admin FROM profiles WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrProfileNotFound
	}
	return isAdmin, err
}
