package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"y-chat/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrMessageLocked   = errors.New("message is locked")
)

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, userID string, content, imageURL *string) (models.Message, error)
	GetRoomMessages(ctx context.Context, roomID string) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int64) (models.Message, error)
	SoftDeleteMessage(ctx context.Context, messageID int64) error
	UpdateContent(ctx context.Context, messageID int64, content string) error
	SetLocked(ctx context.Context, messageID int64, locked bool) error
	ReassignUser(ctx context.Context, messageID int64, userID string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, room_id, user_id, content, image_url, is_deleted, is_locked, created_at`

// CreateMessage stores a message carrying either text or an image URL.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, userID string, content, imageURL *string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, user_id, content, image_url) VALUES ($1, $2, $3, $4)
         RETURNING `+messageColumns,
		roomID, userID, content, imageURL).StructScan(&msg)
	return msg, err
}

// GetRoomMessages returns all messages for a room ordered by creation time
// ascending. Soft-deleted rows are included; they render as tombstones.
func (r *MessageRepo) GetRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE room_id=$1 ORDER BY created_at ASC, id ASC`, roomID)
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDeleteMessage sets is_deleted and clears content and image; the row
// persists. Locked messages reject the mutation. Deleting an already
// deleted message is a no-op in effect.
func (r *MessageRepo) SoftDeleteMessage(ctx context.Context, messageID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted = TRUE, content = NULL, image_url = NULL
         WHERE id=$1 AND is_locked = FALSE`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		var locked bool
		if err := r.db.GetContext(ctx, &locked, `SELECT is_locked FROM messages WHERE id=$1`, messageID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMessageNotFound
			}
			return err
		}
		if locked {
			return ErrMessageLocked
		}
	}
	return nil
}

// UpdateContent rewrites a message's text.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID int64, content string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET content=$2 WHERE id=$1`, messageID, content)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// SetLocked toggles the lock flag.
func (r *MessageRepo) SetLocked(ctx context.Context, messageID int64, locked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_locked=$2 WHERE id=$1`, messageID, locked)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ReassignUser changes a message's author.
func (r *MessageRepo) ReassignUser(ctx context.Context, messageID int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET user_id=$2 WHERE id=$1`, messageID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
