package models

// InsightType represents the type of insight
type InsightType string

const (
	InsightTypeTrend       InsightType = "trend"
	InsightTypeCorrelation InsightType = "correlation"
	InsightTypeStreak      InsightType = "streak"
)

// Metric names a numeric log field that analytics can aggregate
type Metric string

const (
	MetricWater Metric = "water"
	MetricSleep Metric = "sleep"
	MetricWork  Metric = "work"
	MetricMood  Metric = "mood"
)

// Confidence represents the confidence level of an insight
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Direction represents the direction of a trend
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Insight is a derived observation about the user's logs
type Insight struct {
	Type          InsightType `json:"type"`
	Metric        Metric      `json:"metric,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Direction     Direction   `json:"direction,omitempty"`
	PercentChange float64     `json:"percent_change"`
	CurrentValue  float64     `json:"current_value"`
	PreviousValue float64     `json:"previous_value"`
	SampleSize    int         `json:"sample_size"`
	Confidence    Confidence  `json:"confidence"`
}

// InsightsResponse is the response for the insights endpoint
type InsightsResponse struct {
	AsOf     string    `json:"as_of"`
	Insights []Insight `json:"insights"`
	Streak   Streak    `json:"streak"`
}

// Streak holds the consecutive-day logging counts
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// HealthScore is a 0-100 composite of four sub-scores, each 0-25
type HealthScore struct {
	Total       int    `json:"total"`
	Sleep       int    `json:"sleep"`
	Exercise    int    `json:"exercise"`
	Consistency int    `json:"consistency"`
	Nutrition   int    `json:"nutrition"`
	AsOf        string `json:"as_of"`
}

// RecordValue is a personal best and the day it was set
type RecordValue struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// PersonalBests are all-time records across a user's logs
type PersonalBests struct {
	LongestWorkout *RecordValue `json:"longest_workout,omitempty"` // minutes
	BestSleep      *RecordValue `json:"best_sleep,omitempty"`      // hours
	MostWater      *RecordValue `json:"most_water,omitempty"`      // liters in one day
	LongestStreak  int          `json:"longest_streak"`
	TotalWorkouts  int          `json:"total_workouts"`
}

// Stats aggregates logs over a date range
type Stats struct {
	From                 string  `json:"from"`
	To                   string  `json:"to"`
	EntryCount           int     `json:"entry_count"`
	DaysLogged           int     `json:"days_logged"`
	TotalWater           float64 `json:"total_water"`
	AvgWaterPerDay       float64 `json:"avg_water_per_day"`
	AvgSleep             float64 `json:"avg_sleep"`
	AvgMood              float64 `json:"avg_mood"`
	TotalWork            float64 `json:"total_work"`
	TotalExerciseMinutes float64 `json:"total_exercise_minutes"`
	WorkoutCount         int     `json:"workout_count"`
	MealCount            int     `json:"meal_count"`
}

// MealReminder warns that a habitual meal is coming up
type MealReminder struct {
	MealType     MealType `json:"meal_type"`
	TypicalTime  string   `json:"typical_time"` // HH:MM
	MinutesUntil int      `json:"minutes_until"`
}

// MissingMeal reports a habitual meal not logged today
type MissingMeal struct {
	MealType       MealType `json:"meal_type"`
	TypicalTime    string   `json:"typical_time"` // HH:MM
	MinutesOverdue int      `json:"minutes_overdue"`
}

// NudgeKind identifies the source of a smart nudge
type NudgeKind string

const (
	NudgeMissingMeal      NudgeKind = "missing_meal"
	NudgeUpcomingMeal     NudgeKind = "upcoming_meal"
	NudgeHydration        NudgeKind = "hydration"
	NudgeStreakProtection NudgeKind = "streak_protection"
)

// Nudge is a prompt shown to the user. Lower Priority sorts first.
type Nudge struct {
	Kind     NudgeKind `json:"kind"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Priority int       `json:"priority"`
}

// Urgency grades a streak protection alert
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// StreakAlert warns that today's missing log will break the streak
type StreakAlert struct {
	CurrentStreak  int     `json:"current_streak"`
	HoursRemaining float64 `json:"hours_remaining"`
	Urgency        Urgency `json:"urgency"`
	Message        string  `json:"message"`
}

// EndOfDaySummary reports which expected categories were logged today
type EndOfDaySummary struct {
	Date    string   `json:"date"`
	Logged  []string `json:"logged"`
	Missing []string `json:"missing"`
	Percent int      `json:"percent"`
}
