package service

import (
	"sort"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

// StreakMilestones are the streak lengths that produce a notification
var StreakMilestones = []int{3, 7, 14, 30, 50, 100, 365}

// ComputeStreak returns the current and longest runs of consecutive logged
// calendar days. Days are taken in asOf's location; callers pass UTC.
//
// The current streak starts today if today is logged, else yesterday if
// yesterday is logged, else it is 0. Duplicate days count once.
func ComputeStreak(dates []time.Time, asOf time.Time) models.Streak {
	if len(dates) == 0 {
		return models.Streak{}
	}
	loc := asOf.Location()

	logged := make(map[string]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		start := startOfDay(d.In(loc))
		key := start.Format(models.DayLayout)
		if _, seen := logged[key]; seen {
			continue
		}
		logged[key] = struct{}{}
		days = append(days, start)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	has := func(t time.Time) bool {
		_, ok := logged[t.Format(models.DayLayout)]
		return ok
	}

	cursor := startOfDay(asOf)
	if !has(cursor) {
		cursor = cursor.AddDate(0, 0, -1)
	}
	current := 0
	for has(cursor) {
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	if current > longest {
		longest = current
	}
	return models.Streak{Current: current, Longest: longest}
}

// startOfDay returns midnight of t's calendar day in t's location
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayKey formats the UTC calendar day of t
func dayKey(t time.Time) string {
	return t.UTC().Format(models.DayLayout)
}

func entryDates(entries []models.LogEntry) []time.Time {
	dates := make([]time.Time, len(entries))
	for i := range entries {
		dates[i] = entries[i].Date
	}
	return dates
}
