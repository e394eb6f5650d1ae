package service

import (
	"context"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
)

type notificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifications repository.NotificationRepository) NotificationService {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) List(ctx context.Context, ownerID string, unreadOnly bool) ([]models.Notification, error) {
	if ownerID == "" {
		return []models.Notification{}, nil
	}
	return s.notifications.ListByUser(ctx, ownerID, unreadOnly)
}

// MarkRead fails with ErrNotFound for ids that are missing or owned by
// another user
func (s *notificationService) MarkRead(ctx context.Context, ownerID, notificationID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	return mapRepoError(s.notifications.MarkRead(ctx, ownerID, notificationID))
}
