package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const logColumns = `id, user_id, date, mood, work, sleep, water, food, meal, exercise, journal, custom, created_at, updated_at`

// logRow is the storage shape of a LogEntry. Structured fields are JSON text.
type logRow struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Date      string          `db:"date"`
	Mood      sql.NullInt64   `db:"mood"`
	Work      sql.NullFloat64 `db:"work"`
	Sleep     sql.NullFloat64 `db:"sleep"`
	Water     sql.NullFloat64 `db:"water"`
	Food      sql.NullString  `db:"food"`
	Meal      sql.NullString  `db:"meal"`
	Exercise  sql.NullString  `db:"exercise"`
	Journal   sql.NullString  `db:"journal"`
	Custom    sql.NullString  `db:"custom"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func newLogRow(e *models.LogEntry) (*logRow, error) {
	row := &logRow{
		ID:        e.ID,
		UserID:    e.UserID,
		Date:      e.DateKey(),
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
	if e.Mood != nil {
		row.Mood = sql.NullInt64{Int64: int64(*e.Mood), Valid: true}
	}
	if e.Work != nil {
		row.Work = sql.NullFloat64{Float64: *e.Work, Valid: true}
	}
	if e.Sleep != nil {
		row.Sleep = sql.NullFloat64{Float64: *e.Sleep, Valid: true}
	}
	if e.Water != nil {
		row.Water = sql.NullFloat64{Float64: *e.Water, Valid: true}
	}
	if e.Food != nil {
		row.Food = sql.NullString{String: *e.Food, Valid: true}
	}
	if e.Journal != nil {
		row.Journal = sql.NullString{String: *e.Journal, Valid: true}
	}

	var err error
	if e.Meal != nil {
		if row.Meal, err = jsonColumn(e.Meal); err != nil {
			return nil, fmt.Errorf("failed to marshal meal: %w", err)
		}
	}
	if e.Exercise != nil {
		if row.Exercise, err = jsonColumn(e.Exercise); err != nil {
			return nil, fmt.Errorf("failed to marshal exercise: %w", err)
		}
	}
	if len(e.Custom) > 0 {
		if row.Custom, err = jsonColumn(e.Custom); err != nil {
			return nil, fmt.Errorf("failed to marshal custom metrics: %w", err)
		}
	}
	return row, nil
}

func (r *logRow) toModel() (*models.LogEntry, error) {
	date, err := time.Parse(models.DateLayout, r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", r.Date, err)
	}

	e := &models.LogEntry{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      date,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.Mood.Valid {
		v := int(r.Mood.Int64)
		e.Mood = &v
	}
	if r.Work.Valid {
		e.Work = &r.Work.Float64
	}
	if r.Sleep.Valid {
		e.Sleep = &r.Sleep.Float64
	}
	if r.Water.Valid {
		e.Water = &r.Water.Float64
	}
	if r.Food.Valid {
		e.Food = &r.Food.String
	}
	if r.Journal.Valid {
		e.Journal = &r.Journal.String
	}
	if r.Meal.Valid {
		e.Meal = &models.Meal{}
		if err := json.Unmarshal([]byte(r.Meal.String), e.Meal); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meal: %w", err)
		}
	}
	if r.Exercise.Valid {
		e.Exercise = &models.Exercise{}
		if err := json.Unmarshal([]byte(r.Exercise.String), e.Exercise); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exercise: %w", err)
		}
	}
	if r.Custom.Valid {
		if err := json.Unmarshal([]byte(r.Custom.String), &e.Custom); err != nil {
			return nil, fmt.Errorf("failed to unmarshal custom metrics: %w", err)
		}
	}
	return e, nil
}

func jsonColumn(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func rowsToEntries(rows []logRow) ([]models.LogEntry, error) {
	entries := make([]models.LogEntry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

type logRepository struct {
	db *sqlx.DB
}

// NewLogRepository creates a new log entry repository
func NewLogRepository(db *sqlx.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) Create(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error) {
	// Use client-provided ID if present (offline-first clients send UUIDv7)
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		entry.ID = id.String()
	}
	now := time.Now().UTC()
	entry.Date = models.NormalizeDate(entry.Date)
	entry.CreatedAt = now
	entry.UpdatedAt = now

	row, err := newLogRow(entry)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO log_entries (` + logColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		row.ID, row.UserID, row.Date, row.Mood, row.Work, row.Sleep, row.Water,
		row.Food, row.Meal, row.Exercise, row.Journal, row.Custom, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log entry: %w", err)
	}

	return row.toModel()
}

func (r *logRepository) GetByID(ctx context.Context, id string) (*models.LogEntry, error) {
	var row logRow
	query := `SELECT ` + logColumns + ` FROM log_entries WHERE id = $1`

	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, id); err != nil {
		return nil, notFound(err)
	}
	return row.toModel()
}

func (r *logRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.LogEntry, error) {
	var row logRow
	query := `SELECT ` + logColumns + ` FROM log_entries
	          WHERE user_id = $1 AND date = $2
	          ORDER BY created_at ASC, id ASC LIMIT 1`

	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, userID, models.FormatDate(date)); err != nil {
		return nil, notFound(err)
	}
	return row.toModel()
}

func (r *logRepository) ListByRange(ctx context.Context, userID string, from, to time.Time) ([]models.LogEntry, error) {
	var rows []logRow
	query := `SELECT ` + logColumns + ` FROM log_entries
	          WHERE user_id = $1 AND date >= $2 AND date <= $3
	          ORDER BY date DESC, created_at DESC`

	err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query,
		userID, models.FormatDate(from), models.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	return rowsToEntries(rows)
}

func (r *logRepository) ListAll(ctx context.Context, userID string) ([]models.LogEntry, error) {
	var rows []logRow
	query := `SELECT ` + logColumns + ` FROM log_entries
	          WHERE user_id = $1
	          ORDER BY date ASC, created_at ASC`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	return rowsToEntries(rows)
}

func (r *logRepository) Update(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error) {
	entry.Date = models.NormalizeDate(entry.Date)
	entry.UpdatedAt = time.Now().UTC()

	row, err := newLogRow(entry)
	if err != nil {
		return nil, err
	}

	query := `UPDATE log_entries
	          SET date = $1, mood = $2, work = $3, sleep = $4, water = $5, food = $6,
	              meal = $7, exercise = $8, journal = $9, custom = $10, updated_at = $11
	          WHERE id = $12`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		row.Date, row.Mood, row.Work, row.Sleep, row.Water, row.Food,
		row.Meal, row.Exercise, row.Journal, row.Custom, row.UpdatedAt, row.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update log entry: %w", err)
	}
	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, entry.ID)
}

func (r *logRepository) Delete(ctx context.Context, id string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM log_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete log entry: %w", err)
	}
	return checkAffected(result)
}
