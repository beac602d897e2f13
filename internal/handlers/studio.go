package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"y-chat/internal/access"
	"y-chat/internal/models"
	"y-chat/internal/repositories"
	"y-chat/internal/telemetry"
)

// banDurations maps the console's duration codes to ban lengths. Code 6 is
// permanent and maps to a nil expiry.
var banDurations = map[int]time.Duration{
	1: time.Minute,
	2: 5 * time.Minute,
	3: time.Hour,
	4: 24 * time.Hour,
	5: 365 * 24 * time.Hour,
}

type StudioHandler struct {
	guard    *access.Guard
	rooms    repositories.RoomRepository
	messages repositories.MessageRepository
	profiles repositories.ProfileRepository
	bans     repositories.BanRepository
	settings repositories.SettingsRepository
	sessions repositories.SessionRepository
	audit    *telemetry.AuditEmitter
	now      func() time.Time
}

func NewStudioHandler(guard *access.Guard, rooms repositories.RoomRepository, messages repositories.MessageRepository, profiles repositories.ProfileRepository, bans repositories.BanRepository, settings repositories.SettingsRepository, sessions repositories.SessionRepository, audit *telemetry.AuditEmitter) *StudioHandler {
	return &StudioHandler{
		guard:    guard,
		rooms:    rooms,
		messages: messages,
		profiles: profiles,
		bans:     bans,
		settings: settings,
		sessions: sessions,
		audit:    audit,
		now:      time.Now,
	}
}

// RequireAccess gates every studio route. The kill switch is evaluated
// before the admin flag and both checks run fresh on each request.
func (h *StudioHandler) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		decision := h.guard.CheckStudioAccess(c.Request.Context(), userID)
		if decision != access.DecisionGranted {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "studio access denied", "reason": decision.String()})
			return
		}
		c.Next()
	}
}

// CheckAccess reports the caller's studio access decision without gating.
// The client uses it to decide whether to render the console entry at all.
func (h *StudioHandler) CheckAccess(c *gin.Context) {
	userID := c.GetString("userID")
	decision := h.guard.CheckStudioAccess(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{
		"allowed": decision == access.DecisionGranted,
		"reason":  decision.String(),
	})
}

// ListRooms returns every room with its message count.
func (h *StudioHandler) ListRooms(c *gin.Context) {
	summaries, err := h.rooms.ListRoomSummaries(c.Request.Context())
	if err != nil {
		log.Printf("failed to list room summaries: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": summaries})
}

// ListRoomMessages returns every message of a room, deleted tombstones
// included, with author profiles joined on.
func (h *StudioHandler) ListRoomMessages(c *gin.Context) {
	roomID := c.Param("room_id")

	messages, err := h.messages.GetRoomMessages(c.Request.Context(), roomID)
	if err != nil {
		log.Printf("failed to load messages of room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}
	profiles, err := h.profiles.BulkProfiles(c.Request.Context(), ids)
	if err != nil {
		log.Printf("failed to load authors for room %s: %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	byID := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	views := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		view := models.MessageView{Message: m, ReadBy: []string{}}
		if author, ok := byID[m.UserID]; ok {
			view.Author = &author
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// EditMessage rewrites a message's text content.
func (h *StudioHandler) EditMessage(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	if err := h.messages.UpdateContent(c.Request.Context(), messageID, req.Content); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("failed to edit message %d: %v", messageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not edit message"})
		return
	}

	h.audit.Emit(c.Request.Context(), "studio.message.edit",
		fmt.Sprintf("message %d edited", messageID),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"message": "message updated"})
}

// DeleteMessage soft-deletes a message from the console. Locked messages
// are rejected with 423.
func (h *StudioHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	if err := h.messages.SoftDeleteMessage(c.Request.Context(), messageID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMessageLocked):
			c.JSON(http.StatusLocked, gin.H{"error": "message is locked"})
		case errors.Is(err, repositories.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		default:
			log.Printf("failed to delete message %d: %v", messageID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		}
		return
	}

	h.audit.Emit(c.Request.Context(), "studio.message.delete",
		fmt.Sprintf("message %d deleted", messageID),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}

// SetMessageLock toggles a message's lock flag.
func (h *StudioHandler) SetMessageLock(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	var req struct {
		Locked *bool `json:"locked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "locked is required"})
		return
	}

	if err := h.messages.SetLocked(c.Request.Context(), messageID, *req.Locked); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("failed to set lock on message %d: %v", messageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update message"})
		return
	}

	h.audit.Emit(c.Request.Context(), "studio.message.lock",
		fmt.Sprintf("message %d locked=%t", messageID, *req.Locked),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"message": "lock updated"})
}

// ReassignMessage changes a message's author.
func (h *StudioHandler) ReassignMessage(c *gin.Context) {
	messageID, ok := parseMessageID(c)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if _, err := h.profiles.GetProfile(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Printf("failed to load profile %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reassign message"})
		return
	}

	if err := h.messages.ReassignUser(c.Request.Context(), messageID, req.UserID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		log.Printf("failed to reassign message %d: %v", messageID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reassign message"})
		return
	}

	h.audit.Emit(c.Request.Context(), "studio.message.reassign",
		fmt.Sprintf("message %d reassigned to %s", messageID, req.UserID),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"message": "message reassigned"})
}

// ListUsers returns every profile with its effective ban flag resolved
// against the current clock.
func (h *StudioHandler) ListUsers(c *gin.Context) {
	profiles, err := h.profiles.ListProfiles(c.Request.Context())
	if err != nil {
		log.Printf("failed to list profiles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}

	bans, err := h.bans.ListActiveBans(c.Request.Context())
	if err != nil {
		log.Printf("failed to list active bans: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	now := h.now()
	banned := make(map[string]bool, len(bans))
	for _, ban := range bans {
		if ban.EffectiveAt(now) {
			banned[ban.UserID] = true
		}
	}

	summaries := make([]models.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, models.ProfileSummary{
			ID:       p.ID,
			Username: p.Username,
			Nickname: p.Nickname,
			IsBanned: banned[p.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": summaries})
}

// RenameUser sets a user's nickname from the console.
func (h *StudioHandler) RenameUser(c *gin.Context) {
	targetID := c.Param("user_id")

	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname is required"})
		return
	}

	if err := h.profiles.SetNickname(c.Request.Context(), targetID, req.Nickname); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Printf("failed to rename user %s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rename user"})
		return
	}

	h.audit.Emit(c.Request.Context(), "studio.user.rename",
		fmt.Sprintf("user %s renamed to %q", targetID, req.Nickname),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"message": "nickname updated"})
}

// BanUser bans a user for one of the console's duration codes.
func (h *StudioHandler) BanUser(c *gin.Context) {
	adminID := c.GetString("userID")
	targetID := c.Param("user_id")

	var req struct {
		Duration int     `json:"duration" binding:"required"`
		Reason   *string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration is required"})
		return
	}

	var expiresAt *time.Time
	if req.Duration != 6 {
		length, ok := banDurations[req.Duration]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a code between 1 and 6"})
			return
		}
		expiry := h.now().Add(length)
		expiresAt = &expiry
	}

	if _, err := h.profiles.GetProfile(c.Request.Context(), targetID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		log.Printf("failed to load profile %s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not ban user"})
		return
	}

	ban, err := h.bans.CreateBan(c.Request.Context(), targetID, adminID, req.Reason, expiresAt)
	if err != nil {
		log.Printf("failed to ban user %s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not ban user"})
		return
	}

	// A banned user loses their refresh tokens too; access tokens age
	// out on their own and the gates reject them meanwhile.
	if err := h.sessions.DeleteSessionsForUser(c.Request.Context(), targetID); err != nil {
		log.Printf("failed to revoke sessions for banned user %s: %v", targetID, err)
	}

	h.audit.Emit(c.Request.Context(), "studio.user.ban",
		fmt.Sprintf("user %s banned with duration code %d", targetID, req.Duration),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusCreated, gin.H{"ban": ban})
}

// UnbanUser deactivates every active ban of a user.
func (h *StudioHandler) UnbanUser(c *gin.Context) {
	targetID := c.Param("user_id")

	if err := h.bans.DeactivateBans(c.Request.Context(), targetID); err != nil {
		log.Printf("failed to unban user %s: %v", targetID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unban user"})
		return
	}

	h.audit.Emit(c.Request.Context(), "studio.user.unban",
		fmt.Sprintf("user %s unbanned", targetID),
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"message": "user unbanned"})
}

// EmergencyStop flips the kill switch off. Every studio route, this one
// included, denies from the next request on; re-enabling is a manual
// database operation.
func (h *StudioHandler) EmergencyStop(c *gin.Context) {
	if err := h.settings.SetStudioEnabled(c.Request.Context(), false); err != nil {
		log.Printf("failed to flip kill switch: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not disable studio"})
		return
	}

	h.audit.Emit(c.Request.Context(), "studio.emergency_stop",
		"studio disabled by kill switch",
		requestIDFromContext(c), userIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"message": "studio disabled"})
}
