package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	db  Pinger
	env string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, env string) *HealthHandler {
	return &HealthHandler{db: db, env: env}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.Ctx(c.Request.Context()).Error("health check failed", logger.Err(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"env":      h.env,
			"database": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"env":      h.env,
		"database": "ok",
	})
}
