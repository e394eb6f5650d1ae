package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler serves in-app notifications
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetNotifications handles GET /api/v1/notifications?unread_only=
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.notificationService.List(c.Request.Context(), middleware.UserID(c), unreadOnly)
	if err != nil {
		writeServiceError(c, err, "notifications", "")
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID := c.Param("id")

	if err := h.notificationService.MarkRead(c.Request.Context(), middleware.UserID(c), notificationID); err != nil {
		writeServiceError(c, err, "notification", notificationID)
		return
	}

	noContent(c)
}
