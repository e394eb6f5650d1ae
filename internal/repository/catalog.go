package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type routineRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	Items     string    `db:"items"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *routineRow) toModel() (*models.Routine, error) {
	routine := &models.Routine{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Items), &routine.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal routine items: %w", err)
	}
	return routine, nil
}

type catalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sqlx.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

func (r *catalogRepository) ListSports(ctx context.Context, userID string) ([]models.Sport, error) {
	sports := []models.Sport{}
	query := `SELECT id, user_id, name, category, created_at FROM sports
	          WHERE user_id IS NULL OR user_id = $1
	          ORDER BY name ASC`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &sports, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	return sports, nil
}

func (r *catalogRepository) CreateSport(ctx context.Context, sport *models.Sport) (*models.Sport, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	sport.ID = id
	sport.CreatedAt = time.Now().UTC()

	query := `INSERT INTO sports (id, user_id, name, category, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = conn(ctx, r.db).ExecContext(ctx, query, sport.ID, sport.UserID, sport.Name, sport.Category, sport.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create sport: %w", err)
	}
	return sport, nil
}

func (r *catalogRepository) ListExercises(ctx context.Context, userID string) ([]models.CatalogExercise, error) {
	exercises := []models.CatalogExercise{}
	query := `SELECT id, user_id, name, muscle_group, created_at FROM exercises
	          WHERE user_id IS NULL OR user_id = $1
	          ORDER BY name ASC`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &exercises, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	return exercises, nil
}

func (r *catalogRepository) CreateExercise(ctx context.Context, exercise *models.CatalogExercise) (*models.CatalogExercise, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	exercise.ID = id
	exercise.CreatedAt = time.Now().UTC()

	query := `INSERT INTO exercises (id, user_id, name, muscle_group, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		exercise.ID, exercise.UserID, exercise.Name, exercise.MuscleGroup, exercise.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}
	return exercise, nil
}

func (r *catalogRepository) ListRoutines(ctx context.Context, userID string) ([]models.Routine, error) {
	var rows []routineRow
	query := `SELECT id, user_id, name, items, created_at, updated_at FROM routines
	          WHERE user_id = $1 ORDER BY created_at DESC`

	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list routines: %w", err)
	}

	routines := make([]models.Routine, 0, len(rows))
	for i := range rows {
		routine, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		routines = append(routines, *routine)
	}
	return routines, nil
}

func (r *catalogRepository) GetRoutine(ctx context.Context, id string) (*models.Routine, error) {
	var row routineRow
	query := `SELECT id, user_id, name, items, created_at, updated_at FROM routines WHERE id = $1`
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, id); err != nil {
		return nil, notFound(err)
	}
	return row.toModel()
}

func (r *catalogRepository) CreateRoutine(ctx context.Context, routine *models.Routine) (*models.Routine, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	if routine.Items == nil {
		routine.Items = []models.RoutineItem{}
	}
	items, err := json.Marshal(routine.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal routine items: %w", err)
	}

	now := time.Now().UTC()
	routine.ID = id
	routine.CreatedAt = now
	routine.UpdatedAt = now

	query := `INSERT INTO routines (id, user_id, name, items, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		routine.ID, routine.UserID, routine.Name, string(items), routine.CreatedAt, routine.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create routine: %w", err)
	}
	return routine, nil
}

func (r *catalogRepository) DeleteRoutine(ctx context.Context, id string) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	return checkAffected(result)
}
