package ws

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one websocket connection with serialized writes. Snapshot
// publishes come from refresh goroutines, so writes must not interleave.
type Client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{conn: conn, info: info}
}

// WriteJSON sends one JSON frame under the write lock.
func (c *Client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

// Hub maintains the active websocket connections: room-snapshot clients
// keyed by room and unread-count clients keyed by user.
type Hub struct {
	mu          sync.RWMutex
	roomConns   map[string]map[*Client]bool
	unreadConns map[string]map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		roomConns:   make(map[string]map[*Client]bool),
		unreadConns: make(map[string]map[*Client]bool),
	}
}

// AddRoomClient registers a connection watching a room.
func (h *Hub) AddRoomClient(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.roomConns[roomID]; !ok {
		h.roomConns[roomID] = make(map[*Client]bool)
	}
	h.roomConns[roomID][client] = true
}

// RemoveRoomClient removes a room connection.
func (h *Hub) RemoveRoomClient(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.roomConns[roomID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.roomConns, roomID)
		}
	}
}

// AddUnreadClient registers a connection watching unread counts.
func (h *Hub) AddUnreadClient(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.unreadConns[userID]; !ok {
		h.unreadConns[userID] = make(map[*Client]bool)
	}
	h.unreadConns[userID][client] = true
}

// RemoveUnreadClient removes an unread connection.
func (h *Hub) RemoveUnreadClient(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.unreadConns[userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.unreadConns, userID)
		}
	}
}

// Send writes an event to a client and drops the connection on failure.
func (h *Hub) Send(client *Client, event any, onError func()) {
	if err := client.WriteJSON(event); err != nil {
		log.Printf("websocket write error: %v", err)
		_ = client.Close()
		if onError != nil {
			onError()
		}
	}
}

// RoomClientCount reports the active connections for a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomConns[roomID])
}
