package roomsync

import (
	"context"
	"fmt"

	"y-chat/internal/models"
	"y-chat/internal/repositories"
)

// Snapshot is the materialized, time-ordered view of a room: messages with
// resolved author profiles and read-receipt annotations.
type Snapshot struct {
	Room     models.Room          `json:"room"`
	Messages []models.MessageView `json:"messages"`
}

// Synchronizer rebuilds room snapshots. Every trigger runs the full
// sequence; there is no incremental update. The message-to-profile join is
// a local hash join keyed by author id; the store never joins for us.
type Synchronizer struct {
	rooms    repositories.RoomRepository
	messages repositories.MessageRepository
	profiles repositories.ProfileRepository
	reads    repositories.ReadStatusRepository
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(rooms repositories.RoomRepository, messages repositories.MessageRepository, profiles repositories.ProfileRepository, reads repositories.ReadStatusRepository) *Synchronizer {
	return &Synchronizer{rooms: rooms, messages: messages, profiles: profiles, reads: reads}
}

// BuildSnapshot fetches room metadata and messages, joins author profiles
// and read statuses in memory, and marks everything unread by userID as
// read. Marking is at-least-once; the insert absorbs duplicates.
func (s *Synchronizer) BuildSnapshot(ctx context.Context, roomID, userID string) (Snapshot, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch room: %w", err)
	}

	msgs, err := s.messages.GetRoomMessages(ctx, roomID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch messages: %w", err)
	}

	messageIDs := make([]int64, 0, len(msgs))
	authorIDs := make([]string, 0, len(msgs))
	authorSet := map[string]struct{}{}
	for _, m := range msgs {
		messageIDs = append(messageIDs, m.ID)
		if _, ok := authorSet[m.UserID]; !ok {
			authorSet[m.UserID] = struct{}{}
			authorIDs = append(authorIDs, m.UserID)
		}
	}

	authors, err := s.profiles.BulkProfiles(ctx, authorIDs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch authors: %w", err)
	}
	authorByID := make(map[string]models.Profile, len(authors))
	for _, p := range authors {
		authorByID[p.ID] = p
	}

	statuses, err := s.reads.ListForMessages(ctx, messageIDs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch read statuses: %w", err)
	}
	readersByMessage := make(map[int64][]string, len(msgs))
	for _, st := range statuses {
		readersByMessage[st.MessageID] = append(readersByMessage[st.MessageID], st.UserID)
	}

	if err := s.markUnreadRead(ctx, roomID, userID, readersByMessage); err != nil {
		return Snapshot{}, err
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		view := models.MessageView{Message: m, ReadBy: readersByMessage[m.ID]}
		if author, ok := authorByID[m.UserID]; ok {
			view.Author = &author
		}
		views = append(views, view)
	}

	return Snapshot{Room: room, Messages: views}, nil
}

func (s *Synchronizer) markUnreadRead(ctx context.Context, roomID, userID string, readersByMessage map[int64][]string) error {
	unreadIDs, err := s.reads.UnreadMessageIDs(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("fetch unread: %w", err)
	}
	for _, id := range unreadIDs {
		if err := s.reads.MarkRead(ctx, id, userID); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		readersByMessage[id] = append(readersByMessage[id], userID)
	}
	return nil
}
