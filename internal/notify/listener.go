package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lib/pq"
)

const channel = "ychat_changes"

// Listener bridges Postgres NOTIFY events into the Feed.
type Listener struct {
	pq   *pq.Listener
	feed *Feed
}

// NewListener opens a LISTEN connection on the change channel.
func NewListener(dsn string, feed *Feed) (*Listener, error) {
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("notify listener event %v: %v", ev, err)
		}
	})
	if err := l.Listen(channel); err != nil {
		_ = l.Close()
		return nil, err
	}
	return &Listener{pq: l, feed: feed}, nil
}

// Run pumps notifications into the feed until the context is cancelled.
func (l *Listener) Run(ctx context.Context) {
	defer l.pq.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.pq.Notify:
			// nil after a connection loss; pq reconnects on its own.
			if n == nil {
				continue
			}
			var change Change
			if err := json.Unmarshal([]byte(n.Extra), &change); err != nil {
				log.Printf("notify: bad payload %q: %v", n.Extra, err)
				continue
			}
			l.feed.Dispatch(change)
		case <-time.After(90 * time.Second):
			if err := l.pq.Ping(); err != nil {
				log.Printf("notify: ping failed: %v", err)
			}
		}
	}
}
