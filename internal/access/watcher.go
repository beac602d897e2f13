package access

import (
	"context"
	"time"
)

// BanWatcher re-evaluates one user's ban state on a fixed interval and on
// demand. The interval bounds staleness when no mutation fires a change
// notification; both triggers feed the same recompute, which is safe to
// run concurrently with itself (each publish carries a complete status, so
// the last result wins).
type BanWatcher struct {
	guard    *Guard
	userID   string
	interval time.Duration
	kick     chan struct{}
	publish  func(BanStatus)
}

// NewBanWatcher constructs a watcher publishing through the callback.
func NewBanWatcher(guard *Guard, userID string, interval time.Duration, publish func(BanStatus)) *BanWatcher {
	return &BanWatcher{
		guard:    guard,
		userID:   userID,
		interval: interval,
		kick:     make(chan struct{}, 1),
		publish:  publish,
	}
}

// Kick requests an immediate re-evaluation, typically from a change
// notification. Coalesces when one is already pending.
func (w *BanWatcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run polls until the context is cancelled.
func (w *BanWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		case <-w.kick:
			w.check(ctx)
		}
	}
}

func (w *BanWatcher) check(ctx context.Context) {
	status, err := w.guard.CheckBan(ctx, w.userID)
	if err != nil {
		// Fail closed, same as the gates.
		status = BanStatus{Banned: true}
	}
	w.publish(status)
}
