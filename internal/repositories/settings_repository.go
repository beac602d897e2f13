package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"y-chat/internal/models"
)

var ErrSettingsNotFound = errors.New("system settings not found")

// SettingsRepository reads and flips the singleton settings row.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (models.SystemSetting, error)
	SetStudioEnabled(ctx context.Context, enabled bool) error
}

// SettingsRepo is a sqlx-backed SettingsRepository.
type SettingsRepo struct {
	db *sqlx.DB
}

// NewSettingsRepo constructs a SettingsRepo.
func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// GetSettings fetches the singleton row.
func (r *SettingsRepo) GetSettings(ctx context.Context) (models.SystemSetting, error) {
	var setting models.SystemSetting
	err := r.db.GetContext(ctx, &setting,
		`SELECT id, studio_enabled, updated_at FROM system_settings WHERE id=1`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SystemSetting{}, ErrSettingsNotFound
	}
	return setting, err
}

// SetStudioEnabled flips the kill switch and stamps updated_at.
func (r *SettingsRepo) SetStudioEnabled(ctx context.Context, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE system_settings SET studio_enabled=$1, updated_at = NOW() WHERE id=1`, enabled)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrSettingsNotFound
	}
	return nil
}
