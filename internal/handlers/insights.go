package handlers

import (
	"net/http"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// InsightsHandler serves derived analytics
type InsightsHandler struct {
	insightService service.InsightService
	now            func() time.Time
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insightService service.InsightService) *InsightsHandler {
	return &InsightsHandler{
		insightService: insightService,
		now:            time.Now,
	}
}

// GetInsights handles GET /api/v1/insights?as_of=
func (h *InsightsHandler) GetInsights(c *gin.Context) {
	asOf, ok := queryTime(c, "as_of", h.now())
	if !ok {
		return
	}

	insights, err := h.insightService.GetInsights(c.Request.Context(), middleware.UserID(c), asOf)
	if err != nil {
		writeServiceError(c, err, "insights", "")
		return
	}

	c.JSON(http.StatusOK, insights)
}

// GetStreak handles GET /api/v1/streak?as_of=
func (h *InsightsHandler) GetStreak(c *gin.Context) {
	asOf, ok := queryTime(c, "as_of", h.now())
	if !ok {
		return
	}

	streak, err := h.insightService.GetStreak(c.Request.Context(), middleware.UserID(c), asOf)
	if err != nil {
		writeServiceError(c, err, "streak", "")
		return
	}

	c.JSON(http.StatusOK, streak)
}

// GetHealthScore handles GET /api/v1/health-score?as_of=
func (h *InsightsHandler) GetHealthScore(c *gin.Context) {
	asOf, ok := queryTime(c, "as_of", h.now())
	if !ok {
		return
	}

	score, err := h.insightService.GetHealthScore(c.Request.Context(), middleware.UserID(c), asOf)
	if err != nil {
		writeServiceError(c, err, "health score", "")
		return
	}

	c.JSON(http.StatusOK, score)
}

// GetPersonalBests handles GET /api/v1/personal-bests
func (h *InsightsHandler) GetPersonalBests(c *gin.Context) {
	bests, err := h.insightService.GetPersonalBests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "personal bests", "")
		return
	}

	c.JSON(http.StatusOK, bests)
}

// GetStats handles GET /api/v1/stats?from=&to=
func (h *InsightsHandler) GetStats(c *gin.Context) {
	from, to, ok := queryRange(c, "from", "to", h.now())
	if !ok {
		return
	}

	stats, err := h.insightService.GetStats(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		writeServiceError(c, err, "stats", "")
		return
	}

	c.JSON(http.StatusOK, stats)
}
