package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// IdempotencyTTL is how long a cached response can be replayed
const IdempotencyTTL = 24 * time.Hour

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// Get retrieves an existing idempotency record if it exists
	Get(ctx context.Context, key, route, userID string) (*models.IdempotencyKey, error)

	// Store saves a new idempotency record
	Store(ctx context.Context, key, route, userID string, responseBody []byte, statusCode int) error
}

type idempotencyRow struct {
	Key          string    `db:"key"`
	Route        string    `db:"route"`
	UserID       string    `db:"user_id"`
	ResponseBody string    `db:"response_body"`
	StatusCode   int       `db:"status_code"`
	CreatedAt    time.Time `db:"created_at"`
}

type idempotencyRepository struct {
	db *sqlx.DB
}

// NewIdempotencyRepository creates a new SQL-backed idempotency repository
func NewIdempotencyRepository(db *sqlx.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Get(ctx context.Context, key, route, userID string) (*models.IdempotencyKey, error) {
	var row idempotencyRow
	query := `SELECT key, route, user_id, response_body, status_code, created_at
	          FROM idempotency_keys WHERE key = $1 AND route = $2 AND user_id = $3 AND created_at > $4`

	cutoff := time.Now().UTC().Add(-IdempotencyTTL)
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, key, route, userID, cutoff)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, nil // Not found - this is not an error
		}
		return nil, fmt.Errorf("failed to query idempotency key: %w", err)
	}

	return &models.IdempotencyKey{
		Key:          row.Key,
		Route:        row.Route,
		UserID:       row.UserID,
		ResponseBody: []byte(row.ResponseBody),
		StatusCode:   row.StatusCode,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *idempotencyRepository) Store(ctx context.Context, key, route, userID string, responseBody []byte, statusCode int) error {
	// An expired record for the same key is replaced
	query := `INSERT INTO idempotency_keys (key, route, user_id, response_body, status_code, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (key, route, user_id) DO UPDATE
	          SET response_body = excluded.response_body, status_code = excluded.status_code, created_at = excluded.created_at`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		key, route, userID, string(responseBody), statusCode, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}

	return nil
}
