package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

type notificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	n.ID = id
	n.CreatedAt = time.Now().UTC()

	query := `INSERT INTO notifications (id, user_id, kind, title, body, read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = conn(ctx, r.db).ExecContext(ctx, query, n.ID, n.UserID, string(n.Kind), n.Title, n.Body, n.Read, n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, user_id, kind, title, body, read, created_at FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	notifications := []models.Notification{}
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return checkAffected(result)
}
