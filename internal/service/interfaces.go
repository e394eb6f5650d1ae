package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

// Publisher delivers change notifications to a user's connected clients
type Publisher interface {
	Publish(userID string, change *models.ChangeEntry)
}

// BlobStore stores export documents in object storage
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// LogService defines the interface for the per-user log store
type LogService interface {
	Create(ctx context.Context, ownerID string, req *models.CreateLogRequest) (*models.LogEntry, error)
	Get(ctx context.Context, ownerID, logID string) (*models.LogEntry, error)
	// ListByRange returns entries with from <= date <= to, newest first.
	// An empty owner gets an empty list.
	ListByRange(ctx context.Context, ownerID string, from, to time.Time) ([]models.LogEntry, error)
	Patch(ctx context.Context, ownerID, logID string, patch *models.PatchLogRequest) (*models.LogEntry, error)
	// Delete is idempotent: a missing id is success
	Delete(ctx context.Context, ownerID, logID string) error
}

// HistoryService defines the interface for the undo ledger
type HistoryService interface {
	Snapshot(ctx context.Context, ownerID, logID string, action models.HistoryAction) (*models.HistoryEntry, error)
	// Track snapshots the entry and runs fn in the same transaction
	Track(ctx context.Context, ownerID, logID string, action models.HistoryAction, fn func(ctx context.Context) error) error
	// PeekLast returns the newest entry still inside the undo window, or nil
	PeekLast(ctx context.Context, ownerID string) (*models.HistoryEntry, error)
	Undo(ctx context.Context, ownerID string) (*models.UndoResult, error)
}

// InsightService defines the interface for derived analytics
type InsightService interface {
	GetInsights(ctx context.Context, ownerID string, asOf time.Time) (*models.InsightsResponse, error)
	GetStreak(ctx context.Context, ownerID string, asOf time.Time) (models.Streak, error)
	GetHealthScore(ctx context.Context, ownerID string, asOf time.Time) (*models.HealthScore, error)
	GetPersonalBests(ctx context.Context, ownerID string) (*models.PersonalBests, error)
	GetStats(ctx context.Context, ownerID string, from, to time.Time) (*models.Stats, error)
}

// NudgeService defines the interface for time-of-day reminders
type NudgeService interface {
	UpcomingMeals(ctx context.Context, ownerID string, now time.Time) ([]models.MealReminder, error)
	MissingMeals(ctx context.Context, ownerID string, now time.Time) ([]models.MissingMeal, error)
	EndOfDaySummary(ctx context.Context, ownerID string, now time.Time) (*models.EndOfDaySummary, error)
	// StreakProtection returns nil when no alert is due
	StreakProtection(ctx context.Context, ownerID string, now time.Time) (*models.StreakAlert, error)
	SmartNudges(ctx context.Context, ownerID string, now time.Time) ([]models.Nudge, error)
}

// ReportService defines the interface for date-grouped reports
type ReportService interface {
	GenerateReport(ctx context.Context, ownerID string, start, end time.Time, types []models.ReportType) (*models.Report, error)
	RenderHTML(report *models.Report) ([]byte, error)
}

// ExportService defines the interface for export, import and backups
type ExportService interface {
	Export(ctx context.Context, ownerID string) ([]models.LogEntry, error)
	Import(ctx context.Context, ownerID string, records []json.RawMessage) (*models.ImportResult, error)
	Backup(ctx context.Context, ownerID string) (*models.BackupResult, error)
}

// ProfileService defines the interface for user profiles and goals
type ProfileService interface {
	// Get returns the stored profile, or the default goals when none exists
	Get(ctx context.Context, ownerID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, ownerID string, req *models.UpsertProfileRequest) (*models.UserProfile, error)
}

// CatalogService defines the interface for food items, sports, exercises and routines
type CatalogService interface {
	ListFoodItems(ctx context.Context, ownerID string, limit int) ([]models.FoodItem, error)
	ListSports(ctx context.Context, ownerID string) ([]models.Sport, error)
	CreateSport(ctx context.Context, ownerID string, req *models.CreateSportRequest) (*models.Sport, error)
	ListExercises(ctx context.Context, ownerID string) ([]models.CatalogExercise, error)
	CreateExercise(ctx context.Context, ownerID string, req *models.CreateExerciseRequest) (*models.CatalogExercise, error)
	ListRoutines(ctx context.Context, ownerID string) ([]models.Routine, error)
	CreateRoutine(ctx context.Context, ownerID string, req *models.CreateRoutineRequest) (*models.Routine, error)
	DeleteRoutine(ctx context.Context, ownerID, routineID string) error
}

// NotificationService defines the interface for in-app notifications
type NotificationService interface {
	List(ctx context.Context, ownerID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, ownerID, notificationID string) error
}

// SyncService defines the interface for the change feed
type SyncService interface {
	GetChanges(ctx context.Context, ownerID string, cursor int64, limit int) (*models.ChangeFeedResponse, error)
	GetSyncStatus(ctx context.Context, ownerID string) (*SyncStatus, error)
}
