package models

import "time"

// Default goals applied when a user has not set their own.
const (
	DefaultSleepGoal    = 8.0  // hours per night
	DefaultWaterGoal    = 2.5  // liters per day
	DefaultExerciseGoal = 30.0 // minutes per day
	DefaultMealGoal     = 3    // meals per day
)

// UserProfile holds body metrics and daily goals
type UserProfile struct {
	UserID              string    `json:"user_id" db:"user_id"`
	Age                 *int      `json:"age,omitempty" db:"age"`
	Weight              *float64  `json:"weight,omitempty" db:"weight"` // kg
	Height              *float64  `json:"height,omitempty" db:"height"` // cm
	SleepGoal           float64   `json:"sleep_goal" db:"sleep_goal"`
	WaterGoal           float64   `json:"water_goal" db:"water_goal"`
	ExerciseGoal        float64   `json:"exercise_goal" db:"exercise_goal"`
	MealGoal            int       `json:"meal_goal" db:"meal_goal"`
	OnboardingCompleted bool      `json:"onboarding_completed" db:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultProfile returns the profile assumed for users who never saved one
func DefaultProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:       userID,
		SleepGoal:    DefaultSleepGoal,
		WaterGoal:    DefaultWaterGoal,
		ExerciseGoal: DefaultExerciseGoal,
		MealGoal:     DefaultMealGoal,
	}
}

// UpsertProfileRequest represents the request to create or update a profile.
// Absent fields keep their current value.
type UpsertProfileRequest struct {
	Age                 *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=130"`
	Weight              *float64 `json:"weight,omitempty" validate:"omitempty,gt=0,lte=500"`
	Height              *float64 `json:"height,omitempty" validate:"omitempty,gt=0,lte=300"`
	SleepGoal           *float64 `json:"sleep_goal,omitempty" validate:"omitempty,gt=0,lte=24"`
	WaterGoal           *float64 `json:"water_goal,omitempty" validate:"omitempty,gt=0,lte=20"`
	ExerciseGoal        *float64 `json:"exercise_goal,omitempty" validate:"omitempty,gt=0,lte=1440"`
	MealGoal            *int     `json:"meal_goal,omitempty" validate:"omitempty,gte=1,lte=10"`
	OnboardingCompleted *bool    `json:"onboarding_completed,omitempty"`
}

// Apply merges the request into p
func (r *UpsertProfileRequest) Apply(p *UserProfile) {
	if r.Age != nil {
		p.Age = r.Age
	}
	if r.Weight != nil {
		p.Weight = r.Weight
	}
	if r.Height != nil {
		p.Height = r.Height
	}
	if r.SleepGoal != nil {
		p.SleepGoal = *r.SleepGoal
	}
	if r.WaterGoal != nil {
		p.WaterGoal = *r.WaterGoal
	}
	if r.ExerciseGoal != nil {
		p.ExerciseGoal = *r.ExerciseGoal
	}
	if r.MealGoal != nil {
		p.MealGoal = *r.MealGoal
	}
	if r.OnboardingCompleted != nil {
		p.OnboardingCompleted = *r.OnboardingCompleted
	}
}
