package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"y-chat/internal/models"
)

// UnreadCount is one (room, count) pair from the unread aggregation.
type UnreadCount struct {
	RoomID string `db:"room_id" json:"room_id"`
	Count  int    `db:"count" json:"count"`
}

// ReadStatusRepository manages per-(message, reader) read markers.
type ReadStatusRepository interface {
	ListForMessages(ctx context.Context, messageIDs []int64) ([]models.ReadStatus, error)
	UnreadMessageIDs(ctx context.Context, roomID, userID string) ([]int64, error)
	MarkRead(ctx context.Context, messageID int64, userID string) error
	UnreadCounts(ctx context.Context, userID string) ([]UnreadCount, error)
}

// ReadStatusRepo is a sqlx-backed ReadStatusRepository.
type ReadStatusRepo struct {
	db *sqlx.DB
}

// NewReadStatusRepo constructs a ReadStatusRepo.
func NewReadStatusRepo(db *sqlx.DB) *ReadStatusRepo {
	return &ReadStatusRepo{db: db}
}

// ListForMessages returns every read marker for the given messages.
func (r *ReadStatusRepo) ListForMessages(ctx context.Context, messageIDs []int64) ([]models.ReadStatus, error) {
	if len(messageIDs) == 0 {
		return []models.ReadStatus{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT message_id, user_id FROM read_statuses WHERE message_id IN (?)`, messageIDs)
	if err != nil {
		return nil, err
	}
	var statuses []models.ReadStatus
	err = r.db.SelectContext(ctx, &statuses, r.db.Rebind(query), args...)
	return statuses, err
}

// UnreadMessageIDs returns ids of the room's messages the user has not yet
// read. A message is unread iff no read marker exists for (message, user)
// and the user is not its author.
func (r *ReadStatusRepo) UnreadMessageIDs(ctx context.Context, roomID, userID string) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		`SELECT m.id FROM messages m
         WHERE m.room_id=$1 AND m.user_id<>$2
           AND NOT EXISTS (SELECT 1 FROM read_statuses rs WHERE rs.message_id = m.id AND rs.user_id=$2)
         ORDER BY m.id ASC`, roomID, userID)
	return ids, err
}

// MarkRead records that the user has seen a message. Marking is
// at-least-once; duplicate attempts are absorbed by the conflict clause.
func (r *ReadStatusRepo) MarkRead(ctx context.Context, messageID int64, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO read_statuses (message_id, user_id) VALUES ($1, $2)
         ON CONFLICT (message_id, user_id) DO NOTHING`, messageID, userID)
	return err
}

// UnreadCounts aggregates unread messages per room for the user, scoped to
// rooms they participate in.
func (r *ReadStatusRepo) UnreadCounts(ctx context.Context, userID string) ([]UnreadCount, error) {
	var counts []UnreadCount
	err := r.db.SelectContext(ctx, &counts,
		`SELECT m.room_id, COUNT(*) AS count
         FROM messages m
         JOIN room_participants rp ON rp.room_id = m.room_id AND rp.user_id=$1
         WHERE m.user_id<>$1 AND m.is_deleted = FALSE
           AND NOT EXISTS (SELECT 1 FROM read_statuses rs WHERE rs.message_id = m.id AND rs.user_id=$1)
         GROUP BY m.room_id`, userID)
	return counts, err
}
