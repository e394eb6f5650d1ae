package handlers

import (
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/realtime"
	"github.com/gin-gonic/gin"
)

// RealtimeHandler upgrades authenticated requests to change feed websockets
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Connect handles GET /api/v1/ws
func (h *RealtimeHandler) Connect(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.hub.Serve(c.Writer, c.Request, userID); err != nil {
		// the upgrader has already written the error response
		logger.Ctx(c.Request.Context()).Warn("websocket upgrade failed", logger.Err(err))
	}
}

// TokenFromQuery lets browser websocket clients, which cannot set headers,
// pass the bearer token as ?access_token=
func TokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("access_token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
