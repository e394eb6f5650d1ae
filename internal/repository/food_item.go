package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type foodItemRepository struct {
	db *sqlx.DB
}

// NewFoodItemRepository creates a new food item repository
func NewFoodItemRepository(db *sqlx.DB) FoodItemRepository {
	return &foodItemRepository{db: db}
}

func (r *foodItemRepository) RecordUsage(ctx context.Context, userID, name string, usedAt time.Time) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate id: %w", err)
	}
	usedAt = usedAt.UTC()

	query := `INSERT INTO food_items (id, user_id, name, usage_count, last_used_at, created_at)
	          VALUES ($1, $2, $3, 1, $4, $4)
	          ON CONFLICT (user_id, name) DO UPDATE
	          SET usage_count = food_items.usage_count + 1, last_used_at = excluded.last_used_at`

	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id.String(), userID, name, usedAt); err != nil {
		return fmt.Errorf("failed to record food item usage: %w", err)
	}
	return nil
}

func (r *foodItemRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.FoodItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items := []models.FoodItem{}
	query := `SELECT id, user_id, name, usage_count, last_used_at, created_at
	          FROM food_items WHERE user_id = $1
	          ORDER BY usage_count DESC, last_used_at DESC LIMIT $2`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &items, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list food items: %w", err)
	}
	return items, nil
}
