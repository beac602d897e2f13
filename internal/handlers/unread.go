package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"y-chat/internal/access"
	"y-chat/internal/repositories"
	"y-chat/internal/unread"
)

type UnreadHandler struct {
	reads repositories.ReadStatusRepository
	rooms repositories.RoomRepository
	guard *access.Guard
}

func NewUnreadHandler(reads repositories.ReadStatusRepository, rooms repositories.RoomRepository, guard *access.Guard) *UnreadHandler {
	return &UnreadHandler{reads: reads, rooms: rooms, guard: guard}
}

// GetUnreadCounts returns the caller's per-room unread counts plus the
// room→contact mapping for 1:1 rooms. This is the polling fallback for
// clients without a live websocket.
func (h *UnreadHandler) GetUnreadCounts(c *gin.Context) {
	userID := c.GetString("userID")

	counts, err := h.reads.UnreadCounts(c.Request.Context(), userID)
	if err != nil {
		log.Printf("failed to compute unread counts for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load unread counts"})
		return
	}

	byRoom := make(map[string]int, len(counts))
	for _, count := range counts {
		byRoom[count.RoomID] = count.Count
	}

	contacts, err := unread.ContactRooms(c.Request.Context(), h.rooms, userID)
	if err != nil {
		log.Printf("failed to resolve contact rooms for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load unread counts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"counts": byRoom, "contacts": contacts})
}

// GetBanStatus reports whether the caller is currently banned, with the
// surfaced ban when one is in effect.
func (h *UnreadHandler) GetBanStatus(c *gin.Context) {
	userID := c.GetString("userID")

	status, err := h.guard.CheckBan(c.Request.Context(), userID)
	if err != nil {
		log.Printf("ban check failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check ban status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"banned": status.Banned, "ban": status.Ban})
}
