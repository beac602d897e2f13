package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"y-chat/internal/access"
	"y-chat/internal/auth"
	"y-chat/internal/models"
	"y-chat/internal/notify"
	"y-chat/internal/observability"
	"y-chat/internal/unread"
)

// TrackerFactory builds an unread tracker bound to one user and publisher.
type TrackerFactory func(userID string, publish func(map[string]int)) *unread.Tracker

// UnreadWebSocketHandler streams per-room unread counts and ban status to
// one user. The client may send {"type":"active_room","room_id":...} frames
// to zero the open room's badge locally.
type UnreadWebSocketHandler struct {
	hub        *Hub
	tokens     *auth.TokenManager
	guard      *access.Guard
	feed       *notify.Feed
	newTracker TrackerFactory
	upgrader   websocket.Upgrader
}

// NewUnreadWebSocketHandler constructs an UnreadWebSocketHandler.
func NewUnreadWebSocketHandler(hub *Hub, tokens *auth.TokenManager, guard *access.Guard, feed *notify.Feed, newTracker TrackerFactory) *UnreadWebSocketHandler {
	return &UnreadWebSocketHandler{
		hub:        hub,
		tokens:     tokens,
		guard:      guard,
		feed:       feed,
		newTracker: newTracker,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Handle upgrades the connection and runs the tracker for its lifetime.
func (h *UnreadWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("y-chat/ws").Start(c.Request.Context(), "ws.unread")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := authenticate(c, h.tokens)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	})
	h.hub.AddUnreadClient(userID, client)
	observability.IncWSActive("unread")
	observability.IncWSEvent("unread", "ws_connect")

	trackerCtx, cancel := context.WithCancel(context.Background())

	watcher := access.NewBanWatcher(h.guard, userID, 60*time.Second, func(status access.BanStatus) {
		event := gin.H{"type": "ban_status", "banned": status.Banned, "ban": status.Ban}
		h.hub.Send(client, event, func() {
			h.hub.RemoveUnreadClient(userID, client)
			observability.IncWSEvent("unread", "ws_error")
		})
	})

	// Participant and ban changes carry the user id; a membership change
	// tells the client to refetch its room list, a ban change forces an
	// immediate re-evaluation ahead of the poll interval.
	feedDispose := h.feed.SubscribeUser(userID, func(change notify.Change) {
		switch change.Table {
		case "room_participants":
			h.hub.Send(client, gin.H{"type": "rooms_changed"}, func() {
				h.hub.RemoveUnreadClient(userID, client)
				observability.IncWSEvent("unread", "ws_error")
			})
		case "user_bans":
			watcher.Kick()
		}
	})

	tracker := h.newTracker(userID, func(counts map[string]int) {
		event := models.UnreadEvent{Type: "unread_counts", Counts: counts}
		h.hub.Send(client, event, func() {
			h.hub.RemoveUnreadClient(userID, client)
			observability.IncWSEvent("unread", "ws_error")
		})
	})
	dispose := tracker.Start(trackerCtx)
	go watcher.Run(trackerCtx)

	go func() {
		defer func() {
			feedDispose()
			dispose()
			cancel()
			h.hub.RemoveUnreadClient(userID, client)
			observability.DecWSActive("unread")
			observability.IncWSEvent("unread", "ws_disconnect")
			_ = client.Close()
		}()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("unread", "ws_error")
				}
				return
			}

			var frame struct {
				Type   string `json:"type"`
				RoomID string `json:"room_id"`
			}
			if err := json.Unmarshal(payload, &frame); err != nil {
				continue
			}
			switch frame.Type {
			case "active_room":
				tracker.SetActiveRoom(frame.RoomID)
			case "ban_check":
				watcher.Kick()
			}
		}
	}()
}
