package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"y-chat/internal/auth"
	"y-chat/internal/models"
	"y-chat/internal/notify"
	"y-chat/internal/observability"
	"y-chat/internal/repositories"
	"y-chat/internal/roomsync"
)

// RoomWebSocketHandler streams room snapshots: one full snapshot on
// connect and one after every change notification for the room.
type RoomWebSocketHandler struct {
	hub      *Hub
	rooms    repositories.RoomRepository
	sync     *roomsync.Synchronizer
	feed     *notify.Feed
	tokens   *auth.TokenManager
	upgrader websocket.Upgrader
}

// NewRoomWebSocketHandler constructs a RoomWebSocketHandler.
func NewRoomWebSocketHandler(hub *Hub, rooms repositories.RoomRepository, sync *roomsync.Synchronizer, feed *notify.Feed, tokens *auth.TokenManager) *RoomWebSocketHandler {
	return &RoomWebSocketHandler{
		hub:      hub,
		rooms:    rooms,
		sync:     sync,
		feed:     feed,
		tokens:   tokens,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Handle upgrades the connection, verifies room membership and runs the
// synchronizer worker for the lifetime of the connection.
func (h *RoomWebSocketHandler) Handle(c *gin.Context) {
	roomID := c.Param("room_id")

	ctx, span := otel.Tracer("y-chat/ws").Start(c.Request.Context(), "ws.room")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := authenticate(c, h.tokens)
	if !ok {
		return
	}

	member, err := h.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
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
	h.hub.AddRoomClient(roomID, client)
	observability.IncWSActive("room")
	observability.IncWSEvent("room", "ws_connect")

	// Detached from the request context: in-flight refreshes stop via the
	// worker disposer, not via handler teardown.
	workerCtx, cancel := context.WithCancel(context.Background())

	worker := roomsync.NewWorker(h.sync, h.feed, roomID, userID, func(snap roomsync.Snapshot) {
		event := models.RoomEvent{Type: "snapshot", RoomID: roomID, Room: &snap.Room, Messages: snap.Messages}
		h.hub.Send(client, event, func() {
			h.hub.RemoveRoomClient(roomID, client)
			observability.IncWSEvent("room", "ws_error")
		})
	})
	dispose := worker.Start(workerCtx)

	go func() {
		defer func() {
			dispose()
			cancel()
			h.hub.RemoveRoomClient(roomID, client)
			observability.DecWSActive("room")
			observability.IncWSEvent("room", "ws_disconnect")
			_ = client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("room", "ws_error")
				}
				return
			}
		}
	}()
}

func authenticate(c *gin.Context, tokens *auth.TokenManager) (string, bool) {
	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	} else {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return "", false
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return "", false
	}
	return claims.UserID, true
}
