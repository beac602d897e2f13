package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"y-chat/internal/models"
	"y-chat/internal/repositories"
)

type RoomHandler struct {
	rooms    repositories.RoomRepository
	profiles repositories.ProfileRepository
}

func NewRoomHandler(rooms repositories.RoomRepository, profiles repositories.ProfileRepository) *RoomHandler {
	return &RoomHandler{rooms: rooms, profiles: profiles}
}

// ListRooms returns every room the caller participates in.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := c.GetString("userID")

	rooms, err := h.rooms.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("failed to list rooms for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CreateGroupRoom creates a group room with the caller plus the named
// participants.
func (h *RoomHandler) CreateGroupRoom(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Name           string   `json:"name" binding:"required"`
		ParticipantIDs []string `json:"participant_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	participants := append([]string{userID}, req.ParticipantIDs...)
	room, err := h.rooms.CreateRoom(c.Request.Context(), req.Name, true, userID, participants)
	if err != nil {
		log.Printf("failed to create group room: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// ResolvePersonalRoom finds the 1:1 room between the caller and the given
// user, creating it on first contact.
func (h *RoomHandler) ResolvePersonalRoom(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a room with yourself"})
		return
	}

	other, err := h.profiles.GetProfile(c.Request.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Printf("failed to load profile %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open room"})
		return
	}

	room, err := h.rooms.GetPersonalRoom(c.Request.Context(), userID, other.ID)
	if errors.Is(err, repositories.ErrRoomNotFound) {
		room, err = h.rooms.CreateRoom(c.Request.Context(), other.DisplayName(), false, userID, []string{userID, other.ID})
	}
	if err != nil {
		log.Printf("failed to resolve personal room with %s: %v", other.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": room})
}

// ListInvitable returns the profiles that are not yet participants of the
// room, as candidates for an invite.
func (h *RoomHandler) ListInvitable(c *gin.Context) {
	userID := c.GetString("userID")
	roomID := c.Param("room_id")

	ok, err := h.rooms.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		log.Printf("participant check failed for room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load candidates"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this room"})
		return
	}

	participants, err := h.rooms.ListParticipants(c.Request.Context(), roomID)
	if err != nil {
		log.Printf("failed to list participants of room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load candidates"})
		return
	}
	inRoom := make(map[string]bool, len(participants))
	for _, id := range participants {
		inRoom[id] = true
	}

	profiles, err := h.profiles.ListProfiles(c.Request.Context())
	if err != nil {
		log.Printf("failed to list profiles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load candidates"})
		return
	}

	candidates := make([]models.Profile, 0, len(profiles))
	for _, p := range profiles {
		if !inRoom[p.ID] {
			candidates = append(candidates, p)
		}
	}

	c.JSON(http.StatusOK, gin.H{"users": candidates})
}

// Invite adds users to a group room.
func (h *RoomHandler) Invite(c *gin.Context) {
	userID := c.GetString("userID")
	roomID := c.Param("room_id")

	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids is required"})
		return
	}

	ok, err := h.rooms.IsParticipant(c.Request.Context(), roomID, userID)
	if err != nil {
		log.Printf("participant check failed for room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not invite users"})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this room"})
		return
	}

	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		log.Printf("failed to load room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not invite users"})
		return
	}
	if !room.IsGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot invite into a personal room"})
		return
	}

	if err := h.rooms.AddParticipants(c.Request.Context(), roomID, req.UserIDs); err != nil {
		log.Printf("failed to invite users into room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not invite users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "users invited"})
}

// Leave removes the caller from a room.
func (h *RoomHandler) Leave(c *gin.Context) {
	userID := c.GetString("userID")
	roomID := c.Param("room_id")

	if err := h.rooms.RemoveParticipant(c.Request.Context(), roomID, userID); err != nil {
		log.Printf("failed to leave room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}
