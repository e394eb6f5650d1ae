package models

import "time"

// FoodItem is a food name the user has logged before, ranked by usage
type FoodItem struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	UsageCount int       `json:"usage_count" db:"usage_count"`
	LastUsedAt time.Time `json:"last_used_at" db:"last_used_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Sport is a catalog entry. A nil UserID marks a shared default.
type Sport struct {
	ID        string    `json:"id" db:"id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CatalogExercise is a named exercise users pick from when building routines.
// A nil UserID marks a shared default.
type CatalogExercise struct {
	ID          string    `json:"id" db:"id"`
	UserID      *string   `json:"user_id,omitempty" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	MuscleGroup string    `json:"muscle_group" db:"muscle_group"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RoutineItem is one exercise of a routine with its targets
type RoutineItem struct {
	Exercise string  `json:"exercise" validate:"required"`
	Sets     int     `json:"sets" validate:"gte=0"`
	Reps     int     `json:"reps" validate:"gte=0"`
	Weight   float64 `json:"weight,omitempty" validate:"gte=0"`
}

// Routine is a user-owned ordered list of exercises
type Routine struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Name      string        `json:"name"`
	Items     []RoutineItem `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CreateSportRequest represents the request to add a private sport
type CreateSportRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"max=50"`
}

// CreateExerciseRequest represents the request to add a private exercise
type CreateExerciseRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	MuscleGroup string `json:"muscle_group" validate:"max=50"`
}

// CreateRoutineRequest represents the request to create a routine
type CreateRoutineRequest struct {
	Name  string        `json:"name" validate:"required,max=100"`
	Items []RoutineItem `json:"items" validate:"dive"`
}
