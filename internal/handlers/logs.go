package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// LogHandler serves the log store and the undo ledger
type LogHandler struct {
	logService     service.LogService
	historyService service.HistoryService
	now            func() time.Time
}

// NewLogHandler creates a new log handler
func NewLogHandler(logService service.LogService, historyService service.HistoryService) *LogHandler {
	return &LogHandler{
		logService:     logService,
		historyService: historyService,
		now:            time.Now,
	}
}

// CreateLog handles POST /api/v1/logs
func (h *LogHandler) CreateLog(c *gin.Context) {
	var req models.CreateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadJSON(c, err)
		return
	}

	entry, err := h.logService.Create(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		writeServiceError(c, err, "log", "")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetLogs handles GET /api/v1/logs
// Query params:
//   - from: first instant or day (default 30 days before to)
//   - to: last instant or day, inclusive (default now)
func (h *LogHandler) GetLogs(c *gin.Context) {
	from, to, ok := queryRange(c, "from", "to", h.now())
	if !ok {
		return
	}

	entries, err := h.logService.ListByRange(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		writeServiceError(c, err, "log", "")
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetLog handles GET /api/v1/logs/:id
func (h *LogHandler) GetLog(c *gin.Context) {
	logID := c.Param("id")

	entry, err := h.logService.Get(c.Request.Context(), middleware.UserID(c), logID)
	if err != nil {
		writeServiceError(c, err, "log", logID)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// PatchLog handles PATCH /api/v1/logs/:id
// The pre-update state is recorded in the undo ledger.
func (h *LogHandler) PatchLog(c *gin.Context) {
	userID := middleware.UserID(c)
	logID := c.Param("id")

	var patch models.PatchLogRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeBadJSON(c, err)
		return
	}

	var updated *models.LogEntry
	err := h.historyService.Track(c.Request.Context(), userID, logID, models.HistoryActionUpdate, func(ctx context.Context) error {
		var err error
		updated, err = h.logService.Patch(ctx, userID, logID, &patch)
		return err
	})
	if err != nil {
		writeServiceError(c, err, "log", logID)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteLog handles DELETE /api/v1/logs/:id
// Deleting a missing entry succeeds. The deleted entry is recorded in the
// undo ledger.
func (h *LogHandler) DeleteLog(c *gin.Context) {
	userID := middleware.UserID(c)
	logID := c.Param("id")

	err := h.historyService.Track(c.Request.Context(), userID, logID, models.HistoryActionDelete, func(ctx context.Context) error {
		return h.logService.Delete(ctx, userID, logID)
	})
	if errors.Is(err, service.ErrNotFound) {
		logger.Ctx(c.Request.Context()).Debug("delete of missing log", logger.String("log_id", logID))
		noContent(c)
		return
	}
	if err != nil {
		writeServiceError(c, err, "log", logID)
		return
	}

	noContent(c)
}

// Undo handles POST /api/v1/undo
func (h *LogHandler) Undo(c *gin.Context) {
	result, err := h.historyService.Undo(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "history entry", "")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLastHistory handles GET /api/v1/history/last
// Returns null when nothing can be undone.
func (h *LogHandler) GetLastHistory(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusOK, nil)
		return
	}

	entry, err := h.historyService.PeekLast(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "history entry", "")
		return
	}

	c.JSON(http.StatusOK, entry)
}
