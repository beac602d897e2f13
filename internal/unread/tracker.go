package unread

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"y-chat/internal/notify"
	"y-chat/internal/repositories"
)

// Tracker maintains the per-room unread counts for one identity. Every
// change notification, regardless of table, triggers a wholesale recompute
// through the unread aggregation; the local map is replaced, never patched.
type Tracker struct {
	reads   repositories.ReadStatusRepository
	rooms   repositories.RoomRepository
	feed    *notify.Feed
	userID  string
	publish func(map[string]int)

	mu         sync.Mutex
	counts     map[string]int
	activeRoom string
	gen        atomic.Uint64
}

// NewTracker constructs a Tracker publishing through the callback.
func NewTracker(reads repositories.ReadStatusRepository, rooms repositories.RoomRepository, feed *notify.Feed, userID string, publish func(map[string]int)) *Tracker {
	return &Tracker{
		reads:   reads,
		rooms:   rooms,
		feed:    feed,
		userID:  userID,
		publish: publish,
		counts:  make(map[string]int),
	}
}

// Start recomputes once and subscribes to the unfiltered change feed. The
// disposer cancels the subscription and invalidates in-flight recomputes.
func (t *Tracker) Start(ctx context.Context) func() {
	dispose := t.feed.Subscribe(func(notify.Change) {
		t.Recompute(ctx)
	})
	t.Recompute(ctx)
	return func() {
		dispose()
		t.gen.Add(1)
	}
}

// Recompute runs the unread aggregation and replaces the mapping
// wholesale. Overlapping invocations are resolved by generation: a result
// computed before a newer trigger is discarded.
func (t *Tracker) Recompute(ctx context.Context) {
	gen := t.gen.Add(1)
	go func() {
		pairs, err := t.reads.UnreadCounts(ctx, t.userID)
		if err != nil {
			log.Printf("unread: recompute for user=%s failed: %v", t.userID, err)
			return
		}
		counts := make(map[string]int, len(pairs))
		for _, p := range pairs {
			counts[p.RoomID] = p.Count
		}

		t.mu.Lock()
		if t.gen.Load() != gen {
			t.mu.Unlock()
			return
		}
		if t.activeRoom != "" {
			// Display-only correction for the room being looked at;
			// overwritten by the next real fetch.
			counts[t.activeRoom] = 0
		}
		t.counts = counts
		snapshot := copyCounts(counts)
		t.mu.Unlock()

		t.publish(snapshot)
	}()
}

// SetActiveRoom zeroes the count for the currently open room locally. The
// correction is not pushed to the store.
func (t *Tracker) SetActiveRoom(roomID string) {
	t.mu.Lock()
	t.activeRoom = roomID
	if roomID != "" {
		t.counts[roomID] = 0
	}
	snapshot := copyCounts(t.counts)
	t.mu.Unlock()

	t.publish(snapshot)
}

// Counts returns a copy of the current mapping.
func (t *Tracker) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyCounts(t.counts)
}

// ContactRooms resolves, for every 1:1 room the user is in, the other
// participant. Keys are room ids, values the contact's user id.
// Participant rows are read room by room rather than batched.
func ContactRooms(ctx context.Context, rooms repositories.RoomRepository, userID string) (map[string]string, error) {
	personal, err := rooms.ListPersonalRooms(ctx, userID)
	if err != nil {
		return nil, err
	}

	contacts := make(map[string]string, len(personal))
	for _, room := range personal {
		participants, err := rooms.ListParticipants(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range participants {
			if id != userID {
				contacts[room.ID] = id
			}
		}
	}
	return contacts, nil
}

func copyCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
