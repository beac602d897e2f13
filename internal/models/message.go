package models

import "time"

// Message is a room message. Exactly one of Content/ImageURL is populated
// unless the message has been soft-deleted, which clears both.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Content   *string   `db:"content" json:"content"`
	ImageURL  *string   `db:"image_url" json:"image_url"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	IsLocked  bool      `db:"is_locked" json:"is_locked"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReadStatus marks that a reader has seen a message. Rows are created once
// per (message, reader) pair and never updated or deleted.
type ReadStatus struct {
	MessageID int64  `db:"message_id" json:"message_id"`
	UserID    string `db:"user_id" json:"user_id"`
}

// MessageView is a message with its author profile joined on and the set of
// readers attached, as published by the room synchronizer.
type MessageView struct {
	Message
	Author *Profile `json:"author,omitempty"`
	ReadBy []string `json:"read_by"`
}

// RoomEvent is broadcast through websockets whenever a room snapshot is
// republished.
type RoomEvent struct {
	Type     string        `json:"type"`
	RoomID   string        `json:"room_id"`
	Room     *Room         `json:"room,omitempty"`
	Messages []MessageView `json:"messages,omitempty"`
}

// UnreadEvent carries the per-room unread counts for one user.
type UnreadEvent struct {
	Type   string         `json:"type"`
	Counts map[string]int `json:"counts"`
}
