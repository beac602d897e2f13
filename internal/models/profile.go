package models

import "time"

// Profile is one row per identity. Username is immutable after sign-up;
// nickname and avatar are owner- or admin-mutable.
type Profile struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Nickname       *string   `db:"nickname" json:"nickname"`
	AvatarPublicID *string   `db:"avatar_public_id" json:"avatar_public_id"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// DisplayName prefers the nickname and falls back to the username.
func (p Profile) DisplayName() string {
	if p.Nickname != nil && *p.Nickname != "" {
		return *p.Nickname
	}
	return p.Username
}

// ProfileSummary is the moderation view of a profile with its ban state
// resolved.
type ProfileSummary struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Nickname *string `json:"nickname"`
	IsBanned bool    `json:"is_banned"`
}
