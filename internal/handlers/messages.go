package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"y-chat/internal/access"
	"y-chat/internal/media"
	"y-chat/internal/repositories"
	"y-chat/internal/roomsync"
)

type MessageHandler struct {
	rooms    repositories.RoomRepository
	messages repositories.MessageRepository
	sync     *roomsync.Synchronizer
	guard    *access.Guard
	uploader *media.Uploader
}

func NewMessageHandler(rooms repositories.RoomRepository, messages repositories.MessageRepository, sync *roomsync.Synchronizer, guard *access.Guard, uploader *media.Uploader) *MessageHandler {
	return &MessageHandler{rooms: rooms, messages: messages, sync: sync, guard: guard, uploader: uploader}
}

// GetRoomMessages returns the full room snapshot for the caller. Fetching a
// snapshot marks every message the caller had not yet seen as read.
func (h *MessageHandler) GetRoomMessages(c *gin.Context) {
	userID := c.GetString("userID")
	roomID := c.Param("room_id")

	ok, err := h.rooms.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		log.Printf("participant check failed for room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this room"})
		return
	}

	snapshot, err := h.sync.BuildSnapshot(c.Request.Context(), roomID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Printf("failed to build snapshot of room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// SendMessage posts a text or image message into a room. Image sends arrive
// as multipart forms and are uploaded to the media store before the row is
// written.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.GetString("userID")
	roomID := c.Param("room_id")

	if h.guard.IsBanned(c.Request.Context(), userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "your account is banned"})
		return
	}

	ok, err := h.rooms.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		log.Printf("participant check failed for room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this room"})
		return
	}

	var content, imageURL *string
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
			return
		}
		defer file.Close()

		result, err := h.uploader.Upload(c.Request.Context(), header.Filename, file)
		if err != nil {
			log.Printf("image upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not upload image"})
			return
		}
		imageURL = &result.SecureURL
	} else {
		var req struct {
			Content string `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		trimmed := strings.TrimSpace(req.Content)
		content = &trimmed
	}

	message, err := h.messages.CreateMessage(c.Request.Context(), roomID, userID, content, imageURL)
	if err != nil {
		log.Printf("failed to create message in room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// DeleteMessage soft-deletes the caller's own message. Content and image are
// cleared, the row itself stays. Locked messages cannot be deleted.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.GetString("userID")
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	message, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("failed to load message %d: %v", messageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}
	if message.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own messages"})
		return
	}

	if err := h.messages.SoftDeleteMessage(c.Request.Context(), messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageLocked) {
			c.JSON(http.StatusLocked, gin.H{"error": "message is locked"})
			return
		}
		log.Printf("failed to delete message %d: %v", messageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
