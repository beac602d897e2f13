package models

import "time"

// UserBan is one ban record. A user may accumulate several rows; only rows
// with IsActive set and an unexpired (or absent) expiry suppress access.
type UserBan struct {
	ID        int64      `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	BannedBy  string     `db:"banned_by" json:"banned_by"`
	Reason    *string    `db:"reason" json:"reason"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// EffectiveAt reports whether the ban suppresses access at the given
// instant: active and either permanent or not yet expired.
func (b UserBan) EffectiveAt(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

// SystemSetting is the singleton settings row holding the studio kill
// switch.
type SystemSetting struct {
	ID            int       `db:"id" json:"id"`
	StudioEnabled bool      `db:"studio_enabled" json:"studio_enabled"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
