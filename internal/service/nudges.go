package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// MealPatternWindowDays is the trailing window used to learn meal times
	MealPatternWindowDays = 30
	// MinMealSamples is the number of logged meals needed before a meal type
	// has a typical time
	MinMealSamples = 3
	// UpcomingMealWindow is how far ahead a meal reminder looks, in minutes
	UpcomingMealWindow = 30
	// MissingMealGrace is how long after the typical time a meal counts as missing
	MissingMealGrace = 60

	// HydrationPaceRatio is the share of the pro-rated water goal below which
	// a hydration nudge fires
	HydrationPaceRatio = 0.8
	// HydrationStartHour is the UTC hour before which no hydration nudge fires
	HydrationStartHour = 10
)

// endOfDayCategories are the categories expected to be logged every day
var endOfDayCategories = []string{"sleep", "water", "meal", "exercise", "mood"}

type nudgeService struct {
	logs     repository.LogRepository
	profiles repository.ProfileRepository
}

// NewNudgeService creates a new nudge service
func NewNudgeService(logs repository.LogRepository, profiles repository.ProfileRepository) NudgeService {
	return &nudgeService{
		logs:     logs,
		profiles: profiles,
	}
}

func (s *nudgeService) UpcomingMeals(ctx context.Context, ownerID string, now time.Time) ([]models.MealReminder, error) {
	if ownerID == "" {
		return []models.MealReminder{}, nil
	}
	entries, err := s.logs.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return upcomingMeals(entries, now.UTC()), nil
}

func (s *nudgeService) MissingMeals(ctx context.Context, ownerID string, now time.Time) ([]models.MissingMeal, error) {
	if ownerID == "" {
		return []models.MissingMeal{}, nil
	}
	entries, err := s.logs.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return missingMeals(entries, now.UTC()), nil
}

func (s *nudgeService) EndOfDaySummary(ctx context.Context, ownerID string, now time.Time) (*models.EndOfDaySummary, error) {
	now = now.UTC()
	if ownerID == "" {
		return endOfDaySummary(nil, now), nil
	}
	from, to := dayWindow(now, 1)
	entries, err := s.logs.ListByRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return endOfDaySummary(entries, now), nil
}

func (s *nudgeService) StreakProtection(ctx context.Context, ownerID string, now time.Time) (*models.StreakAlert, error) {
	if ownerID == "" {
		return nil, nil
	}
	entries, err := s.logs.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return streakProtection(entries, now.UTC()), nil
}

// SmartNudges gathers every nudge that applies right now, most urgent first
func (s *nudgeService) SmartNudges(ctx context.Context, ownerID string, now time.Time) ([]models.Nudge, error) {
	now = now.UTC()
	nudges := []models.Nudge{}
	if ownerID == "" {
		return nudges, nil
	}

	var entries []models.LogEntry
	var profile *models.UserProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.logs.ListAll(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = loadProfile(gctx, s.profiles, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load nudge inputs: %w", err)
	}

	if alert := streakProtection(entries, now); alert != nil {
		nudges = append(nudges, models.Nudge{
			Kind:     models.NudgeStreakProtection,
			Title:    title(fmt.Sprintf("protect your %d day streak", alert.CurrentStreak)),
			Message:  alert.Message,
			Priority: urgencyPriority(alert.Urgency),
		})
	}
	for _, m := range missingMeals(entries, now) {
		nudges = append(nudges, models.Nudge{
			Kind:     models.NudgeMissingMeal,
			Title:    title(fmt.Sprintf("missed %s?", m.MealType)),
			Message:  fmt.Sprintf("You usually have %s around %s. Log it when you can.", m.MealType, m.TypicalTime),
			Priority: 2,
		})
	}
	if n := hydrationNudge(entries, profile, now); n != nil {
		nudges = append(nudges, *n)
	}
	for _, m := range upcomingMeals(entries, now) {
		nudges = append(nudges, models.Nudge{
			Kind:     models.NudgeUpcomingMeal,
			Title:    title(fmt.Sprintf("%s soon", m.MealType)),
			Message:  fmt.Sprintf("You usually have %s at %s, in %d minutes.", m.MealType, m.TypicalTime, m.MinutesUntil),
			Priority: 4,
		})
	}

	sort.SliceStable(nudges, func(i, j int) bool { return nudges[i].Priority < nudges[j].Priority })
	return nudges, nil
}

// =============================================================================
// Meal patterns
// =============================================================================

// typicalMealTimes returns the median minute-of-day of each meal type over
// the trailing window. Types with fewer than MinMealSamples are absent.
func typicalMealTimes(entries []models.LogEntry, now time.Time) map[models.MealType]int {
	since := startOfDay(now).AddDate(0, 0, -MealPatternWindowDays)
	samples := make(map[models.MealType][]int)
	for i := range entries {
		e := &entries[i]
		if e.Meal == nil || e.Date.Before(since) || e.Date.After(now) {
			continue
		}
		samples[e.Meal.Type] = append(samples[e.Meal.Type], mealMinute(e))
	}

	typical := make(map[models.MealType]int)
	for mealType, minutes := range samples {
		if len(minutes) < MinMealSamples {
			continue
		}
		typical[mealType] = median(minutes)
	}
	return typical
}

// mealMinute is the minute-of-day a meal was eaten: the meal's own time if
// set, else the entry timestamp's UTC clock time
func mealMinute(e *models.LogEntry) int {
	if e.Meal != nil && e.Meal.Time != "" {
		if t, err := time.Parse("15:04", e.Meal.Time); err == nil {
			return t.Hour()*60 + t.Minute()
		}
	}
	d := e.Date.UTC()
	return d.Hour()*60 + d.Minute()
}

func median(values []int) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mealsLoggedToday returns the meal types with an entry on now's UTC day
func mealsLoggedToday(entries []models.LogEntry, now time.Time) map[models.MealType]bool {
	today := dayKey(now)
	logged := make(map[models.MealType]bool)
	for i := range entries {
		if entries[i].Meal != nil && entries[i].Day() == today {
			logged[entries[i].Meal.Type] = true
		}
	}
	return logged
}

func upcomingMeals(entries []models.LogEntry, now time.Time) []models.MealReminder {
	typical := typicalMealTimes(entries, now)
	logged := mealsLoggedToday(entries, now)
	nowMinute := now.Hour()*60 + now.Minute()

	out := []models.MealReminder{}
	for _, mealType := range models.MealTypes {
		minute, ok := typical[mealType]
		if !ok || logged[mealType] {
			continue
		}
		until := minute - nowMinute
		if until < 0 || until > UpcomingMealWindow {
			continue
		}
		out = append(out, models.MealReminder{
			MealType:     mealType,
			TypicalTime:  clock(minute),
			MinutesUntil: until,
		})
	}
	return out
}

func missingMeals(entries []models.LogEntry, now time.Time) []models.MissingMeal {
	typical := typicalMealTimes(entries, now)
	logged := mealsLoggedToday(entries, now)
	nowMinute := now.Hour()*60 + now.Minute()

	out := []models.MissingMeal{}
	for _, mealType := range models.MealTypes {
		minute, ok := typical[mealType]
		if !ok || logged[mealType] {
			continue
		}
		overdue := nowMinute - minute
		if overdue < MissingMealGrace {
			continue
		}
		out = append(out, models.MissingMeal{
			MealType:       mealType,
			TypicalTime:    clock(minute),
			MinutesOverdue: overdue,
		})
	}
	return out
}

func clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// =============================================================================
// Daily summary and streak protection
// =============================================================================

func endOfDaySummary(entries []models.LogEntry, now time.Time) *models.EndOfDaySummary {
	today := dayKey(now)
	present := make(map[string]bool)
	for i := range entries {
		e := &entries[i]
		if e.Day() != today {
			continue
		}
		if e.Sleep != nil {
			present["sleep"] = true
		}
		if e.Water != nil {
			present["water"] = true
		}
		if e.HasMeal() {
			present["meal"] = true
		}
		if e.Exercise != nil {
			present["exercise"] = true
		}
		if e.Mood != nil {
			present["mood"] = true
		}
	}

	summary := &models.EndOfDaySummary{Date: today, Logged: []string{}, Missing: []string{}}
	for _, category := range endOfDayCategories {
		if present[category] {
			summary.Logged = append(summary.Logged, category)
		} else {
			summary.Missing = append(summary.Missing, category)
		}
	}
	summary.Percent = int(math.Round(float64(len(summary.Logged)) * 100 / float64(len(endOfDayCategories))))
	return summary
}

// streakProtection returns an alert when the streak through yesterday is
// alive and nothing is logged today
func streakProtection(entries []models.LogEntry, now time.Time) *models.StreakAlert {
	today := dayKey(now)
	for i := range entries {
		if entries[i].Day() == today {
			return nil
		}
	}

	streak := ComputeStreak(entryDates(entries), now)
	if streak.Current == 0 {
		return nil
	}

	remaining := startOfDay(now).AddDate(0, 0, 1).Sub(now).Hours()
	alert := &models.StreakAlert{
		CurrentStreak:  streak.Current,
		HoursRemaining: math.Round(remaining*10) / 10,
		Urgency:        streakUrgency(remaining),
	}
	alert.Message = fmt.Sprintf("Log anything in the next %.1f hours to keep your %d day streak.", alert.HoursRemaining, streak.Current)
	return alert
}

func streakUrgency(hoursRemaining float64) models.Urgency {
	switch {
	case hoursRemaining > 6:
		return models.UrgencyLow
	case hoursRemaining > 3:
		return models.UrgencyMedium
	case hoursRemaining > 1:
		return models.UrgencyHigh
	default:
		return models.UrgencyCritical
	}
}

func urgencyPriority(u models.Urgency) int {
	switch u {
	case models.UrgencyCritical, models.UrgencyHigh:
		return 1
	case models.UrgencyMedium:
		return 2
	default:
		return 3
	}
}

// hydrationNudge fires when today's water is behind the goal pro-rated by
// the elapsed share of the UTC day
func hydrationNudge(entries []models.LogEntry, profile *models.UserProfile, now time.Time) *models.Nudge {
	if now.Hour() < HydrationStartHour || profile.WaterGoal <= 0 {
		return nil
	}

	today := dayKey(now)
	var water float64
	for i := range entries {
		if entries[i].Water != nil && entries[i].Day() == today {
			water += *entries[i].Water
		}
	}

	elapsed := now.Sub(startOfDay(now)).Hours() / 24
	expected := profile.WaterGoal * elapsed
	if water >= HydrationPaceRatio*expected {
		return nil
	}

	return &models.Nudge{
		Kind:     models.NudgeHydration,
		Title:    title("time for some water"),
		Message:  fmt.Sprintf("You have had %.2f of the %.2f liters expected by now.", water, expected),
		Priority: 3,
	}
}
