package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"y-chat/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRepository abstracts room and participant persistence.
type RoomRepository interface {
	CreateRoom(ctx context.Context, name string, isGroup bool, createdBy string, participantIDs []string) (models.Room, error)
	GetRoom(ctx context.Context, roomID string) (models.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error)
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
	ListParticipants(ctx context.Context, roomID string) ([]string, error)
	AddParticipants(ctx context.Context, roomID string, userIDs []string) error
	RemoveParticipant(ctx context.Context, roomID, userID string) error
	GetPersonalRoom(ctx context.Context, userID, otherUserID string) (models.Room, error)
	ListPersonalRooms(ctx context.Context, userID string) ([]models.Room, error)
	ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error)
}

// RoomRepo is a sqlx-backed RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// CreateRoom inserts a room and its participant edges in one transaction.
// The creator must be part of participantIDs for group rooms; callers build
// that list.
func (r *RoomRepo) CreateRoom(ctx context.Context, name string, isGroup bool, createdBy string, participantIDs []string) (models.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, err
	}
	defer tx.Rollback()

	var room models.Room
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO rooms (id, name, is_group, created_by) VALUES ($1, $2, $3, $4)
         RETURNING id, name, is_group, created_by, created_at`,
		uuid.NewString(), name, isGroup, createdBy).StructScan(&room); err != nil {
		return models.Room{}, err
	}

	for _, userID := range participantIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2)
             ON CONFLICT (room_id, user_id) DO NOTHING`, room.ID, userID); err != nil {
			return models.Room{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID string) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room,
		`SELECT id, name, is_group, created_by, created_at FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns rooms the user participates in.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT r.id, r.name, r.is_group, r.created_by, r.created_at
         FROM rooms r
         JOIN room_participants rp ON rp.room_id = r.id
         WHERE rp.user_id=$1
         ORDER BY r.created_at DESC`, userID)
	return rooms, err
}

// IsParticipant checks the membership edge, the sole authorization boundary
// for room access.
func (r *RoomRepo) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM room_participants WHERE room_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}

// ListParticipants returns the user ids in a room.
func (r *RoomRepo) ListParticipants(ctx context.Context, roomID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM room_participants WHERE room_id=$1`, roomID)
	return ids, err
}

// AddParticipants inserts one membership edge per invited identity.
func (r *RoomRepo) AddParticipants(ctx context.Context, roomID string, userIDs []string) error {
	for _, userID := range userIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2)
             ON CONFLICT (room_id, user_id) DO NOTHING`, roomID, userID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveParticipant deletes the membership edge; removing it is "leaving".
func (r *RoomRepo) RemoveParticipant(ctx context.Context, roomID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM room_participants WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	return err
}

// GetPersonalRoom resolves the existing 1:1 room for a pair of identities.
func (r *RoomRepo) GetPersonalRoom(ctx context.Context, userID, otherUserID string) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room,
		`SELECT r.id, r.name, r.is_group, r.created_by, r.created_at
         FROM rooms r
         JOIN room_participants a ON a.room_id = r.id AND a.user_id=$1
         JOIN room_participants b ON b.room_id = r.id AND b.user_id=$2
         WHERE r.is_group = FALSE
         LIMIT 1`, userID, otherUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListPersonalRooms returns the user's 1:1 rooms.
func (r *RoomRepo) ListPersonalRooms(ctx context.Context, userID string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT r.id, r.name, r.is_group, r.created_by, r.created_at
         FROM rooms r
         JOIN room_participants rp ON rp.room_id = r.id
         WHERE rp.user_id=$1 AND r.is_group = FALSE
         ORDER BY r.created_at DESC`, userID)
	return rooms, err
}

// ListRoomSummaries returns every room with its message count, newest
// first, for the moderation console.
func (r *RoomRepo) ListRoomSummaries(ctx context.Context) ([]models.RoomSummary, error) {
	var rooms []models.RoomSummary
	err := r.db.SelectContext(ctx, &rooms,
		`SELECT r.id, r.name, r.is_group, r.created_at,
                COUNT(m.id) AS message_count
         FROM rooms r
         LEFT JOIN messages m ON m.room_id = r.id
         GROUP BY r.id, r.name, r.is_group, r.created_at
         ORDER BY r.created_at DESC`)
	return rooms, err
}
