package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

type profileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new user profile repository
func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	query := `SELECT user_id, age, weight, height, sleep_goal, water_goal, exercise_goal, meal_goal,
	                 onboarding_completed, created_at, updated_at
	          FROM user_profiles WHERE user_id = $1`

	if err := sqlx.GetContext(ctx, conn(ctx, r.db), profile, query, userID); err != nil {
		return nil, notFound(err)
	}
	profile.CreatedAt = profile.CreatedAt.UTC()
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	query := `INSERT INTO user_profiles (user_id, age, weight, height, sleep_goal, water_goal, exercise_goal,
	                                     meal_goal, onboarding_completed, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          ON CONFLICT (user_id) DO UPDATE
	          SET age = excluded.age, weight = excluded.weight, height = excluded.height,
	              sleep_goal = excluded.sleep_goal, water_goal = excluded.water_goal,
	              exercise_goal = excluded.exercise_goal, meal_goal = excluded.meal_goal,
	              onboarding_completed = excluded.onboarding_completed, updated_at = excluded.updated_at`

	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		profile.UserID, profile.Age, profile.Weight, profile.Height, profile.SleepGoal, profile.WaterGoal,
		profile.ExerciseGoal, profile.MealGoal, profile.OnboardingCompleted, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return r.Get(ctx, profile.UserID)
}
