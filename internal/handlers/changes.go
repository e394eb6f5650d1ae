package handlers

import (
	"net/http"
	"strconv"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ChangesHandler serves the per-user change feed used for incremental sync
type ChangesHandler struct {
	syncService service.SyncService
}

// NewChangesHandler creates a new changes handler
func NewChangesHandler(syncService service.SyncService) *ChangesHandler {
	return &ChangesHandler{syncService: syncService}
}

// GetLatestCursor handles GET /api/v1/changes/latest-cursor
// Returns the newest change id for the user, useful after a full sync to skip stale entries
func (h *ChangesHandler) GetLatestCursor(c *gin.Context) {
	status, err := h.syncService.GetSyncStatus(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "cursor", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"cursor": status.LatestCursor})
}

// GetChanges handles GET /api/v1/changes
// Query params:
//   - cursor: last change id seen (default 0, "since" is accepted too)
//   - limit: max results (default 100, max 1000)
func (h *ChangesHandler) GetChanges(c *gin.Context) {
	log := logger.Ctx(c.Request.Context())

	var cursor int64
	key := "cursor"
	if c.Query(key) == "" {
		key = "since"
	}
	if raw := c.Query(key); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeInvalidParam(c, key, "must be an integer")
			return
		}
		cursor = parsed
	}

	limit, ok := queryInt(c, "limit", service.DefaultChangeLimit)
	if !ok {
		return
	}

	response, err := h.syncService.GetChanges(c.Request.Context(), middleware.UserID(c), cursor, limit)
	if err != nil {
		writeServiceError(c, err, "changes", "")
		return
	}

	log.Debug("fetched changes",
		logger.Int64("cursor", cursor),
		logger.Int("count", len(response.Changes)),
		logger.Int64("next_cursor", response.NextCursor),
		logger.Bool("has_more", response.HasMore),
	)

	c.JSON(http.StatusOK, response)
}
