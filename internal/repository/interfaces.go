package repository

import (
	"context"
	"errors"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist
var ErrNotFound = errors.New("not found")

// LogRepository defines the interface for log entry data access.
// It does not enforce ownership; callers check UserID.
type LogRepository interface {
	Create(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error)
	GetByID(ctx context.Context, id string) (*models.LogEntry, error)
	// GetByUserAndDate returns the oldest entry whose canonical date string
	// equals date, or ErrNotFound.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.LogEntry, error)
	// ListByRange returns entries with from <= date <= to, newest first
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]models.LogEntry, error)
	// ListAll returns every entry of the user, oldest first
	ListAll(ctx context.Context, userID string) ([]models.LogEntry, error)
	// Update overwrites date and every payload field of the entry
	Update(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error)
	Delete(ctx context.Context, id string) error
}

// HistoryRepository defines the interface for the per-user undo ledger
type HistoryRepository interface {
	// Append stores the entry and trims the user's ledger to the newest keep
	// entries.
	Append(ctx context.Context, entry *models.HistoryEntry, keep int) (*models.HistoryEntry, error)
	// Latest returns the newest entry of the user, or nil when the ledger is empty
	Latest(ctx context.Context, userID string) (*models.HistoryEntry, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, userID string) (int, error)
}

// FoodItemRepository defines the interface for the per-user food list
type FoodItemRepository interface {
	// RecordUsage inserts the item or bumps its usage count
	RecordUsage(ctx context.Context, userID, name string, usedAt time.Time) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.FoodItem, error)
}

// CatalogRepository defines the interface for sports, exercises and routines
type CatalogRepository interface {
	// ListSports returns shared defaults plus the user's own sports
	ListSports(ctx context.Context, userID string) ([]models.Sport, error)
	CreateSport(ctx context.Context, sport *models.Sport) (*models.Sport, error)
	// ListExercises returns shared defaults plus the user's own exercises
	ListExercises(ctx context.Context, userID string) ([]models.CatalogExercise, error)
	CreateExercise(ctx context.Context, exercise *models.CatalogExercise) (*models.CatalogExercise, error)

	ListRoutines(ctx context.Context, userID string) ([]models.Routine, error)
	GetRoutine(ctx context.Context, id string) (*models.Routine, error)
	CreateRoutine(ctx context.Context, routine *models.Routine) (*models.Routine, error)
	DeleteRoutine(ctx context.Context, id string) error
}

// ProfileRepository defines the interface for user profile data access
type ProfileRepository interface {
	// Get returns the stored profile or ErrNotFound
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
}

// NotificationRepository defines the interface for in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
