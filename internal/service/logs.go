package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type muteAchievementsKey struct{}

// muteAchievements marks ctx so creates made under it record no
// achievement notifications. Restores use it: the facts they bring back
// are not new.
func muteAchievements(ctx context.Context) context.Context {
	return context.WithValue(ctx, muteAchievementsKey{}, true)
}

func achievementsMuted(ctx context.Context) bool {
	muted, _ := ctx.Value(muteAchievementsKey{}).(bool)
	return muted
}

type logService struct {
	logs          repository.LogRepository
	foodItems     repository.FoodItemRepository
	changeLog     repository.ChangeLogRepository
	notifications repository.NotificationRepository
	tx            repository.Transactor
	publisher     Publisher
	now           func() time.Time
}

// NewLogService creates a new log store service. publisher may be nil.
func NewLogService(
	logs repository.LogRepository,
	foodItems repository.FoodItemRepository,
	changeLog repository.ChangeLogRepository,
	notifications repository.NotificationRepository,
	tx repository.Transactor,
	publisher Publisher,
) LogService {
	return &logService{
		logs:          logs,
		foodItems:     foodItems,
		changeLog:     changeLog,
		notifications: notifications,
		tx:            tx,
		publisher:     publisher,
		now:           time.Now,
	}
}

func (s *logService) Create(ctx context.Context, ownerID string, req *models.CreateLogRequest) (*models.LogEntry, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.LogFields.IsEmpty() {
		return nil, invalidField("fields", "required", "at least one field must be set")
	}

	entry := &models.LogEntry{
		UserID:    ownerID,
		Date:      s.now(),
		LogFields: req.LogFields.Clone(),
	}
	if req.Date != nil {
		entry.Date = *req.Date
	}

	// Use client-provided ID if present (offline clients send UUIDv7)
	if req.ID != nil && *req.ID != "" {
		stamped, err := parseClientID(*req.ID, s.now())
		if err != nil {
			return nil, invalidField("id", "uuidv7", err.Error())
		}
		entry.ID = *req.ID
		if req.Date == nil {
			// queued offline creates carry their creation time in the id
			entry.Date = stamped
		}

		// A replayed create returns the stored entry
		existing, err := s.logs.GetByID(ctx, entry.ID)
		switch {
		case err == nil && existing.UserID == ownerID:
			return existing, nil
		case err == nil:
			return nil, ErrForbidden
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	var created *models.LogEntry
	var change *models.ChangeEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.logs.Create(ctx, entry)
		if err != nil {
			return err
		}
		if err := s.recordFoodUsage(ctx, created); err != nil {
			return err
		}
		change, err = s.changeLog.Append(ctx, &models.ChangeLogInput{
			EntityType: models.EntityTypeLogEntry,
			Operation:  models.OperationCreate,
			EntityID:   created.ID,
			UserID:     ownerID,
			Data:       created,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info("log entry created",
		logger.String("log_id", created.ID),
		logger.String("date", created.DateKey()),
	)

	publishChange(ctx, s.publisher, ownerID, change)
	if !achievementsMuted(ctx) {
		s.notifyAchievements(ctx, created)
	}

	return created, nil
}

func (s *logService) Get(ctx context.Context, ownerID, logID string) (*models.LogEntry, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return s.owned(ctx, ownerID, logID)
}

func (s *logService) ListByRange(ctx context.Context, ownerID string, from, to time.Time) ([]models.LogEntry, error) {
	if ownerID == "" || from.After(to) {
		return []models.LogEntry{}, nil
	}
	return s.logs.ListByRange(ctx, ownerID, from, to)
}

func (s *logService) Patch(ctx context.Context, ownerID, logID string, patch *models.PatchLogRequest) (*models.LogEntry, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	var updated *models.LogEntry
	var change *models.ChangeEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.owned(ctx, ownerID, logID)
		if err != nil {
			return err
		}

		fields := existing.LogFields.Clone()
		patch.Apply(&fields)
		if err := validateStruct(&fields); err != nil {
			return err
		}
		if fields.IsEmpty() {
			return invalidField("fields", "required", "a log entry must keep at least one field")
		}

		existing.LogFields = fields
		if patch.Date != nil {
			existing.Date = *patch.Date
		}

		updated, err = s.logs.Update(ctx, existing)
		if err != nil {
			return mapRepoError(err)
		}
		if patch.Meal.Set && patch.Meal.Valid {
			if err := s.recordFoodUsage(ctx, updated); err != nil {
				return err
			}
		}

		change, err = s.changeLog.Append(ctx, &models.ChangeLogInput{
			EntityType: models.EntityTypeLogEntry,
			Operation:  models.OperationUpdate,
			EntityID:   updated.ID,
			UserID:     ownerID,
			Data:       updated,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	publishChange(ctx, s.publisher, ownerID, change)
	return updated, nil
}

func (s *logService) Delete(ctx context.Context, ownerID, logID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	var change *models.ChangeEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.logs.GetByID(ctx, logID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil // already gone
		}
		if err != nil {
			return err
		}
		if existing.UserID != ownerID {
			return ErrForbidden
		}

		if err := s.logs.Delete(ctx, logID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		deletedAt := s.now().UTC()
		change, err = s.changeLog.Append(ctx, &models.ChangeLogInput{
			EntityType: models.EntityTypeLogEntry,
			Operation:  models.OperationDelete,
			EntityID:   logID,
			UserID:     ownerID,
			DeletedAt:  &deletedAt,
		})
		return err
	})
	if err != nil {
		return err
	}

	publishChange(ctx, s.publisher, ownerID, change)
	return nil
}

// owned loads an entry and checks it belongs to ownerID
func (s *logService) owned(ctx context.Context, ownerID, logID string) (*models.LogEntry, error) {
	entry, err := s.logs.GetByID(ctx, logID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if entry.UserID != ownerID {
		return nil, ErrForbidden
	}
	return entry, nil
}

// recordFoodUsage bumps the usage count of every item named by the entry's meal
func (s *logService) recordFoodUsage(ctx context.Context, entry *models.LogEntry) error {
	if s.foodItems == nil || entry.Meal == nil {
		return nil
	}
	seen := make(map[string]bool, len(entry.Meal.Items))
	for _, item := range entry.Meal.Items {
		name := strings.TrimSpace(item)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		if err := s.foodItems.RecordUsage(ctx, entry.UserID, name, entry.Date); err != nil {
			return fmt.Errorf("failed to record food usage: %w", err)
		}
	}
	return nil
}

// notifyAchievements creates streak milestone and personal record
// notifications for a new entry. Failures are logged, never returned.
func (s *logService) notifyAchievements(ctx context.Context, entry *models.LogEntry) {
	if s.notifications == nil {
		return
	}
	log := logger.Ctx(ctx)

	all, err := s.logs.ListAll(ctx, entry.UserID)
	if err != nil {
		log.Warn("failed to load logs for achievements", logger.Err(err))
		return
	}

	var pending []models.Notification
	if n := milestoneNotification(all, entry, s.now().UTC()); n != nil {
		pending = append(pending, *n)
	}
	pending = append(pending, recordNotifications(all, entry)...)

	for i := range pending {
		pending[i].UserID = entry.UserID
		if _, err := s.notifications.Create(ctx, &pending[i]); err != nil {
			log.Warn("failed to create notification",
				logger.Err(err),
				logger.String("kind", string(pending[i].Kind)),
			)
		}
	}
}

// milestoneNotification returns a notification when adding entry moved the
// current streak across a milestone
func milestoneNotification(all []models.LogEntry, entry *models.LogEntry, asOf time.Time) *models.Notification {
	var before, after []time.Time
	for i := range all {
		after = append(after, all[i].Date)
		if all[i].ID != entry.ID {
			before = append(before, all[i].Date)
		}
	}

	prev := ComputeStreak(before, asOf).Current
	cur := ComputeStreak(after, asOf).Current

	reached := 0
	for _, m := range StreakMilestones {
		if prev < m && m <= cur {
			reached = m
		}
	}
	if reached == 0 {
		return nil
	}

	return &models.Notification{
		Kind:  models.NotificationStreakMilestone,
		Title: title(fmt.Sprintf("%d day streak", reached)),
		Body:  fmt.Sprintf("You have logged %d days in a row. Keep it going!", reached),
	}
}

// recordNotifications returns a notification for every all-time record the
// entry beats. A first value is not a record.
func recordNotifications(all []models.LogEntry, entry *models.LogEntry) []models.Notification {
	var out []models.Notification

	var bestSleep, bestWorkout float64
	var hasSleep, hasWorkout bool
	waterByDay := make(map[string]float64)
	entryDay := entry.Day()
	for i := range all {
		e := &all[i]
		if e.ID == entry.ID {
			continue
		}
		if e.Sleep != nil && (!hasSleep || *e.Sleep > bestSleep) {
			bestSleep, hasSleep = *e.Sleep, true
		}
		if e.Exercise != nil && (!hasWorkout || e.Exercise.Duration > bestWorkout) {
			bestWorkout, hasWorkout = e.Exercise.Duration, true
		}
		if e.Water != nil {
			waterByDay[e.Day()] += *e.Water
		}
	}

	if entry.Sleep != nil && hasSleep && *entry.Sleep > bestSleep {
		out = append(out, models.Notification{
			Kind:  models.NotificationPersonalRecord,
			Title: title("new sleep record"),
			Body:  fmt.Sprintf("%.1f hours of sleep beats your previous best of %.1f.", *entry.Sleep, bestSleep),
		})
	}
	if entry.Exercise != nil && hasWorkout && entry.Exercise.Duration > bestWorkout {
		out = append(out, models.Notification{
			Kind:  models.NotificationPersonalRecord,
			Title: title("longest workout yet"),
			Body:  fmt.Sprintf("%.0f minutes of %s beats your previous best of %.0f.", entry.Exercise.Duration, entry.Exercise.Type, bestWorkout),
		})
	}
	if entry.Water != nil {
		best, hasOtherDay := 0.0, false
		for day, v := range waterByDay {
			if day == entryDay {
				continue
			}
			hasOtherDay = true
			if v > best {
				best = v
			}
		}
		today := waterByDay[entryDay] + *entry.Water
		if hasOtherDay && today > best {
			out = append(out, models.Notification{
				Kind:  models.NotificationPersonalRecord,
				Title: title("hydration record"),
				Body:  fmt.Sprintf("%.2f liters on %s is the most water you have logged in a day.", today, entryDay),
			})
		}
	}
	return out
}

// title capitalises s for display. A Caser is stateful, so each call makes one.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// mapRepoError translates repository sentinels into service sentinels
func mapRepoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
