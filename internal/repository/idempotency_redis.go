package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

type redisIdempotencyRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyRepository creates an idempotency repository that keeps
// cached responses in Redis with a TTL instead of in the database.
func NewRedisIdempotencyRepository(client *redis.Client, ttl time.Duration) IdempotencyRepository {
	if ttl <= 0 {
		ttl = IdempotencyTTL
	}
	return &redisIdempotencyRepository{client: client, ttl: ttl}
}

func idempotencyRedisKey(key, route, userID string) string {
	return fmt.Sprintf("idempotency:%s:%s:%s", userID, route, key)
}

func (r *redisIdempotencyRepository) Get(ctx context.Context, key, route, userID string) (*models.IdempotencyKey, error) {
	raw, err := r.client.Get(ctx, idempotencyRedisKey(key, route, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not found - this is not an error
		}
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	var record models.IdempotencyKey
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency record: %w", err)
	}
	return &record, nil
}

func (r *redisIdempotencyRepository) Store(ctx context.Context, key, route, userID string, responseBody []byte, statusCode int) error {
	record := models.IdempotencyKey{
		Key:          key,
		Route:        route,
		UserID:       userID,
		ResponseBody: responseBody,
		StatusCode:   statusCode,
		CreatedAt:    time.Now().UTC(),
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency record: %w", err)
	}

	if err := r.client.Set(ctx, idempotencyRedisKey(key, route, userID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	return nil
}
