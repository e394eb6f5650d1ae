package handlers

import (
	"net/http"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// NudgeHandler serves time-of-day reminders. Every endpoint takes the
// client's current time so the server never guesses the user's "now".
type NudgeHandler struct {
	nudgeService service.NudgeService
	now          func() time.Time
}

// NewNudgeHandler creates a new nudge handler
func NewNudgeHandler(nudgeService service.NudgeService) *NudgeHandler {
	return &NudgeHandler{
		nudgeService: nudgeService,
		now:          time.Now,
	}
}

// GetSmartNudges handles GET /api/v1/nudges?as_of=
func (h *NudgeHandler) GetSmartNudges(c *gin.Context) {
	now, ok := queryTime(c, "as_of", h.now())
	if !ok {
		return
	}

	nudges, err := h.nudgeService.SmartNudges(c.Request.Context(), middleware.UserID(c), now)
	if err != nil {
		writeServiceError(c, err, "nudges", "")
		return
	}

	c.JSON(http.StatusOK, nudges)
}

// GetUpcomingMeals handles GET /api/v1/nudges/upcoming-meals?current_time=
func (h *NudgeHandler) GetUpcomingMeals(c *gin.Context) {
	now, ok := queryTime(c, "current_time", h.now())
	if !ok {
		return
	}

	reminders, err := h.nudgeService.UpcomingMeals(c.Request.Context(), middleware.UserID(c), now)
	if err != nil {
		writeServiceError(c, err, "meal reminders", "")
		return
	}

	c.JSON(http.StatusOK, reminders)
}

// GetMissingMeals handles GET /api/v1/nudges/missing-meals?current_time=
func (h *NudgeHandler) GetMissingMeals(c *gin.Context) {
	now, ok := queryTime(c, "current_time", h.now())
	if !ok {
		return
	}

	missing, err := h.nudgeService.MissingMeals(c.Request.Context(), middleware.UserID(c), now)
	if err != nil {
		writeServiceError(c, err, "missing meals", "")
		return
	}

	c.JSON(http.StatusOK, missing)
}

// GetStreakProtection handles GET /api/v1/nudges/streak-protection?current_time=
// Responds with null when no alert is due.
func (h *NudgeHandler) GetStreakProtection(c *gin.Context) {
	now, ok := queryTime(c, "current_time", h.now())
	if !ok {
		return
	}

	alert, err := h.nudgeService.StreakProtection(c.Request.Context(), middleware.UserID(c), now)
	if err != nil {
		writeServiceError(c, err, "streak alert", "")
		return
	}

	c.JSON(http.StatusOK, alert)
}

// GetEndOfDaySummary handles GET /api/v1/nudges/end-of-day?current_time=
func (h *NudgeHandler) GetEndOfDaySummary(c *gin.Context) {
	now, ok := queryTime(c, "current_time", h.now())
	if !ok {
		return
	}

	summary, err := h.nudgeService.EndOfDaySummary(c.Request.Context(), middleware.UserID(c), now)
	if err != nil {
		writeServiceError(c, err, "summary", "")
		return
	}

	c.JSON(http.StatusOK, summary)
}
