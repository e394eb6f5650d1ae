package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	syncService service.SyncService
}

func NewSyncHandler(syncService service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// GetSyncStatus handles GET /api/v1/sync/status
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	status, err := h.syncService.GetSyncStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "sync status", "")
		return
	}

	c.Header("Cache-Control", "private, max-age=30")
	c.JSON(http.StatusOK, status)
}
