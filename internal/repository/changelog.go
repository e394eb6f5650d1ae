package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// ChangeLogRepository defines the interface for change log operations
type ChangeLogRepository interface {
	// Append adds a new entry to the change log
	Append(ctx context.Context, input *models.ChangeLogInput) (*models.ChangeEntry, error)

	// GetSince retrieves changes since the given cursor for a user
	GetSince(ctx context.Context, userID string, cursor int64, limit int) (*models.ChangeFeedResponse, error)

	// GetLatestCursor returns the maximum change_log ID for a user
	GetLatestCursor(ctx context.Context, userID string) (int64, error)
}

type changeRow struct {
	ID         int64          `db:"id"`
	EntityType string         `db:"entity_type"`
	Operation  string         `db:"operation"`
	EntityID   string         `db:"entity_id"`
	UserID     string         `db:"user_id"`
	Data       sql.NullString `db:"data"`
	DeletedAt  sql.NullTime   `db:"deleted_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r *changeRow) toModel() models.ChangeEntry {
	entry := models.ChangeEntry{
		ID:         r.ID,
		EntityType: models.EntityType(r.EntityType),
		Operation:  models.Operation(r.Operation),
		EntityID:   r.EntityID,
		UserID:     r.UserID,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.Data.Valid {
		entry.Data = json.RawMessage(r.Data.String)
	}
	if r.DeletedAt.Valid {
		t := r.DeletedAt.Time.UTC()
		entry.DeletedAt = &t
	}
	return entry
}

type changeLogRepository struct {
	db *sqlx.DB
}

// NewChangeLogRepository creates a new change log repository
func NewChangeLogRepository(db *sqlx.DB) ChangeLogRepository {
	return &changeLogRepository{db: db}
}

func (r *changeLogRepository) Append(ctx context.Context, input *models.ChangeLogInput) (*models.ChangeEntry, error) {
	// Marshal the entity data to JSON
	var data sql.NullString
	if input.Data != nil {
		dataBytes, err := json.Marshal(input.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entity data: %w", err)
		}
		data = sql.NullString{String: string(dataBytes), Valid: true}
	}

	var deletedAt sql.NullTime
	if input.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: input.DeletedAt.UTC(), Valid: true}
	}

	row := changeRow{
		EntityType: string(input.EntityType),
		Operation:  string(input.Operation),
		EntityID:   input.EntityID,
		UserID:     input.UserID,
		Data:       data,
		DeletedAt:  deletedAt,
		CreatedAt:  time.Now().UTC(),
	}

	query := `INSERT INTO change_log (entity_type, operation, entity_id, user_id, data, deleted_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		row.EntityType, row.Operation, row.EntityID, row.UserID, row.Data, row.DeletedAt, row.CreatedAt,
	).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to append to change log: %w", err)
	}

	entry := row.toModel()
	return &entry, nil
}

func (r *changeLogRepository) GetSince(ctx context.Context, userID string, cursor int64, limit int) (*models.ChangeFeedResponse, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	// We fetch limit+1 to detect if there are more results
	var rows []changeRow
	query := `SELECT id, entity_type, operation, entity_id, user_id, data, deleted_at, created_at
	          FROM change_log WHERE user_id = $1 AND id > $2
	          ORDER BY id ASC LIMIT $3`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, userID, cursor, limit+1); err != nil {
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}

	// Determine if there are more results
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	entries := make([]models.ChangeEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toModel())
	}

	// When there are no new entries, preserve the original cursor
	// to prevent the client from treating the next sync as a first-time sync
	nextCursor := cursor
	if len(entries) > 0 {
		nextCursor = entries[len(entries)-1].ID
	}

	return &models.ChangeFeedResponse{
		Changes:    entries,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *changeLogRepository) GetLatestCursor(ctx context.Context, userID string) (int64, error) {
	var cursor sql.NullInt64
	query := `SELECT MAX(id) FROM change_log WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &cursor, query, userID); err != nil {
		return 0, fmt.Errorf("failed to query change log: %w", err)
	}
	return cursor.Int64, nil // 0 when the user has no entries
}
