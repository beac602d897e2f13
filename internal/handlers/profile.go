package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"y-chat/internal/media"
	"y-chat/internal/repositories"
)

type ProfileHandler struct {
	profiles repositories.ProfileRepository
	uploader *media.Uploader
}

func NewProfileHandler(profiles repositories.ProfileRepository, uploader *media.Uploader) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, uploader: uploader}
}

// GetMe returns the caller's own profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID := c.GetString("userID")

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		log.Printf("failed to load profile %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateMe updates the caller's nickname.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname is required"})
		return
	}

	if err := h.profiles.SetNickname(c.Request.Context(), userID, req.Nickname); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		log.Printf("failed to update nickname for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

// UploadAvatar stores a new avatar image and records its public id on the
// profile.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetString("userID")

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	result, err := h.uploader.Upload(c.Request.Context(), header.Filename, file)
	if err != nil {
		log.Printf("avatar upload failed for %s: %v", userID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not upload avatar"})
		return
	}

	if err := h.profiles.UpdateProfile(c.Request.Context(), userID, nil, &result.PublicID); err != nil {
		log.Printf("failed to record avatar for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_public_id": result.PublicID, "avatar_url": result.SecureURL})
}

// ListUsers returns every other profile, as candidates for starting a
// conversation.
func (h *ProfileHandler) ListUsers(c *gin.Context) {
	userID := c.GetString("userID")

	profiles, err := h.profiles.ListOtherProfiles(c.Request.Context(), userID)
	if err != nil {
		log.Printf("failed to list profiles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": profiles})
}
