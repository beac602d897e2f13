package roomsync

import (
	"context"
	"log"
	"sync/atomic"

	"y-chat/internal/notify"
	"y-chat/internal/observability"
)

// Worker keeps one (room, viewer) pair synchronized: it rebuilds the
// snapshot on start and on every change notification for the room, and
// publishes each result. Refreshes may overlap; a generation counter
// discards any refresh that finished after a newer trigger fired, so the
// published view never goes backwards. The disposer returned by Start also
// invalidates refreshes already in flight.
type Worker struct {
	sync    *Synchronizer
	feed    *notify.Feed
	roomID  string
	userID  string
	publish func(Snapshot)
	gen     atomic.Uint64
}

// NewWorker constructs a Worker publishing through the callback.
func NewWorker(sync *Synchronizer, feed *notify.Feed, roomID, userID string, publish func(Snapshot)) *Worker {
	return &Worker{sync: sync, feed: feed, roomID: roomID, userID: userID, publish: publish}
}

// Start triggers the initial refresh and subscribes to the room's change
// feed. The returned disposer cancels the subscription and invalidates any
// in-flight refresh.
func (w *Worker) Start(ctx context.Context) func() {
	dispose := w.feed.SubscribeRoom(w.roomID, func(notify.Change) {
		w.Refresh(ctx)
	})
	w.Refresh(ctx)
	return func() {
		dispose()
		w.gen.Add(1)
	}
}

// Refresh rebuilds the snapshot asynchronously and publishes it unless a
// newer trigger has superseded this one.
func (w *Worker) Refresh(ctx context.Context) {
	gen := w.gen.Add(1)
	go func() {
		observability.IncRoomRefresh()
		snap, err := w.sync.BuildSnapshot(ctx, w.roomID, w.userID)
		if err != nil {
			log.Printf("roomsync: refresh room=%s failed: %v", w.roomID, err)
			return
		}
		if w.gen.Load() != gen {
			// A newer refresh started while this one ran; drop it.
			observability.IncRoomRefreshStale()
			return
		}
		w.publish(snap)
	}()
}
