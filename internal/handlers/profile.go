package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ProfileHandler serves user goals and notification preferences
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profileService.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "profile", "")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpsertProfile handles PUT /api/v1/profile
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var req models.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadJSON(c, err)
		return
	}

	profile, err := h.profileService.Upsert(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		writeServiceError(c, err, "profile", "")
		return
	}

	c.JSON(http.StatusOK, profile)
}
