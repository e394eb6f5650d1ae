package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

type historyRow struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	LogID     string    `db:"log_id"`
	Action    string    `db:"action"`
	Snapshot  string    `db:"snapshot"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *historyRow) toModel() (*models.HistoryEntry, error) {
	entry := &models.HistoryEntry{
		ID:        r.ID,
		UserID:    r.UserID,
		LogID:     r.LogID,
		Action:    models.HistoryAction(r.Action),
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Snapshot), &entry.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history snapshot: %w", err)
	}
	return entry, nil
}

type historyRepository struct {
	db *sqlx.DB
	tx Transactor
}

// NewHistoryRepository creates a new undo ledger repository
func NewHistoryRepository(db *sqlx.DB) HistoryRepository {
	return &historyRepository{db: db, tx: NewTransactor(db)}
}

func (r *historyRepository) Append(ctx context.Context, entry *models.HistoryEntry, keep int) (*models.HistoryEntry, error) {
	snapshot, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history snapshot: %w", err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.db)

		query := `INSERT INTO log_history (user_id, log_id, action, snapshot, created_at)
		          VALUES ($1, $2, $3, $4, $5) RETURNING id`
		row := q.QueryRowxContext(ctx, query,
			entry.UserID, entry.LogID, string(entry.Action), string(snapshot), entry.CreatedAt)
		if err := row.Scan(&entry.ID); err != nil {
			return fmt.Errorf("failed to append history entry: %w", err)
		}

		// Keep only the newest entries, ordered by insertion sequence
		trim := `DELETE FROM log_history
		         WHERE user_id = $1 AND id NOT IN (
		             SELECT id FROM log_history WHERE user_id = $1 ORDER BY id DESC LIMIT $2
		         )`
		if _, err := q.ExecContext(ctx, trim, entry.UserID, keep); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *historyRepository) Latest(ctx context.Context, userID string) (*models.HistoryEntry, error) {
	var row historyRow
	query := `SELECT id, user_id, log_id, action, snapshot, created_at
	          FROM log_history WHERE user_id = $1 ORDER BY id DESC LIMIT 1`

	err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, userID)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, nil // Empty ledger - this is not an error
		}
		return nil, fmt.Errorf("failed to get latest history entry: %w", err)
	}
	return row.toModel()
}

func (r *historyRepository) Delete(ctx context.Context, id int64) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM log_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	return checkAffected(result)
}

func (r *historyRepository) Count(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM log_history WHERE user_id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}
