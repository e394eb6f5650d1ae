package service

import (
	"math"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

// computeHealthScore scores entries from a 7 day window against the profile
// goals. Each part is a ratio capped at 1 and scaled to 0-25.
func computeHealthScore(entries []models.LogEntry, profile *models.UserProfile) *models.HealthScore {
	sleepByDay := dailyValues(entries, models.MetricSleep)
	sleepDays := make([]float64, 0, len(sleepByDay))
	for _, v := range sleepByDay {
		sleepDays = append(sleepDays, v)
	}

	var exerciseMinutes float64
	var meals int
	days := make(map[string]struct{})
	for i := range entries {
		e := &entries[i]
		days[e.Day()] = struct{}{}
		if e.Exercise != nil {
			exerciseMinutes += e.Exercise.Duration
		}
		if e.HasMeal() {
			meals++
		}
	}

	score := &models.HealthScore{
		Sleep:       subScore(mean(sleepDays), profile.SleepGoal),
		Exercise:    subScore(exerciseMinutes, HealthScoreWindowDays*profile.ExerciseGoal),
		Consistency: subScore(float64(len(days)), HealthScoreWindowDays),
		Nutrition:   subScore(float64(meals), float64(HealthScoreWindowDays*profile.MealGoal)),
	}
	score.Total = score.Sleep + score.Exercise + score.Consistency + score.Nutrition
	return score
}

func subScore(value, goal float64) int {
	if goal <= 0 {
		return 0
	}
	ratio := math.Min(value/goal, 1)
	return int(math.Round(ratio * subScoreMax))
}

// computePersonalBests scans every entry once. Ties keep the earliest day.
func computePersonalBests(entries []models.LogEntry, asOf time.Time) *models.PersonalBests {
	bests := &models.PersonalBests{}
	waterByDay := make(map[string]float64)
	var waterDays []string

	for i := range entries {
		e := &entries[i]
		if e.Exercise != nil {
			bests.TotalWorkouts++
			if bests.LongestWorkout == nil || e.Exercise.Duration > bests.LongestWorkout.Value {
				bests.LongestWorkout = &models.RecordValue{Value: e.Exercise.Duration, Date: e.Day()}
			}
		}
		if e.Sleep != nil && (bests.BestSleep == nil || *e.Sleep > bests.BestSleep.Value) {
			bests.BestSleep = &models.RecordValue{Value: *e.Sleep, Date: e.Day()}
		}
		if e.Water != nil {
			day := e.Day()
			if _, ok := waterByDay[day]; !ok {
				waterDays = append(waterDays, day)
			}
			waterByDay[day] += *e.Water
		}
	}

	for _, day := range waterDays {
		if v := waterByDay[day]; bests.MostWater == nil || v > bests.MostWater.Value {
			bests.MostWater = &models.RecordValue{Value: round2(v), Date: day}
		}
	}

	bests.LongestStreak = ComputeStreak(entryDates(entries), asOf).Longest
	return bests
}

// computeStats aggregates the entries of a date range
func computeStats(entries []models.LogEntry, from, to time.Time) *models.Stats {
	stats := &models.Stats{
		From:       dayKey(from),
		To:         dayKey(to),
		EntryCount: len(entries),
	}

	var moods []float64
	days := make(map[string]struct{})
	waterDays := make(map[string]struct{})
	for i := range entries {
		e := &entries[i]
		days[e.Day()] = struct{}{}
		if e.Water != nil {
			stats.TotalWater += *e.Water
			waterDays[e.Day()] = struct{}{}
		}
		if e.Mood != nil {
			moods = append(moods, float64(*e.Mood))
		}
		if e.Work != nil {
			stats.TotalWork += *e.Work
		}
		if e.Exercise != nil {
			stats.WorkoutCount++
			stats.TotalExerciseMinutes += e.Exercise.Duration
		}
		if e.HasMeal() {
			stats.MealCount++
		}
	}

	stats.DaysLogged = len(days)
	if len(waterDays) > 0 {
		stats.AvgWaterPerDay = round2(stats.TotalWater / float64(len(waterDays)))
	}
	sleep := dailyValues(entries, models.MetricSleep)
	if len(sleep) > 0 {
		var total float64
		for _, v := range sleep {
			total += v
		}
		stats.AvgSleep = round2(total / float64(len(sleep)))
	}
	stats.AvgMood = round2(mean(moods))
	stats.TotalWater = round2(stats.TotalWater)
	stats.TotalWork = round2(stats.TotalWork)
	return stats
}
