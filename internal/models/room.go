package models

import "time"

// Room is a conversation scope, either 1:1 ("personal") or multi-party
// ("group").
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsGroup   bool      `db:"is_group" json:"is_group"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoomParticipant is the membership edge. Its existence is the sole
// authorization boundary for reading and writing a room's messages.
type RoomParticipant struct {
	RoomID string `db:"room_id" json:"room_id"`
	UserID string `db:"user_id" json:"user_id"`
}

// RoomSummary is the moderation view of a room with its message count.
type RoomSummary struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	IsGroup      bool      `db:"is_group" json:"is_group"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	MessageCount int       `db:"message_count" json:"message_count"`
}
