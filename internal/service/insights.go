package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// Trend windows are two back-to-back runs of TrendWindowDays
	TrendWindowDays = 7
	// TrendThreshold is the minimum absolute percent change worth reporting
	TrendThreshold = 10.0

	// CorrelationWindowDays is the trailing window for exercise correlations
	CorrelationWindowDays = 30
	// MinDaysPerPartition is the minimum number of days with and without exercise
	MinDaysPerPartition = 4
	// CorrelationMargin is how much higher the exercise-day mean must be
	CorrelationMargin = 0.05

	// HealthScoreWindowDays is the trailing window of the health score
	HealthScoreWindowDays = 7
	// subScoreMax is the ceiling of each of the four health score parts
	subScoreMax = 25

	// StreakInsightMinDays is the shortest current streak reported as an insight
	StreakInsightMinDays = 3

	// Correlation thresholds
	CorrelationThresholdHigh   = 0.5
	CorrelationThresholdMedium = 0.3

	// P-value thresholds
	PValueThresholdHigh   = 0.01
	PValueThresholdMedium = 0.05
)

// trendMetrics are the metrics checked for week-over-week trends
var trendMetrics = []models.Metric{models.MetricWater, models.MetricSleep, models.MetricWork, models.MetricMood}

// correlationTargets are the metrics compared on exercise and rest days
var correlationTargets = []models.Metric{models.MetricSleep, models.MetricMood}

type insightService struct {
	logs     repository.LogRepository
	profiles repository.ProfileRepository
	now      func() time.Time
}

// NewInsightService creates a new analytics service
func NewInsightService(logs repository.LogRepository, profiles repository.ProfileRepository) InsightService {
	return &insightService{
		logs:     logs,
		profiles: profiles,
		now:      time.Now,
	}
}

// GetInsights returns trends, exercise correlations and the streak insight
// as of the given time. Insufficient data yields no insights, not an error.
func (s *insightService) GetInsights(ctx context.Context, ownerID string, asOf time.Time) (*models.InsightsResponse, error) {
	asOf = asOf.UTC()
	resp := &models.InsightsResponse{
		AsOf:     asOf.Format(time.RFC3339),
		Insights: []models.Insight{},
	}
	if ownerID == "" {
		return resp, nil
	}

	entries, err := s.logs.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}

	for _, metric := range trendMetrics {
		if insight := computeTrend(entries, metric, asOf); insight != nil {
			resp.Insights = append(resp.Insights, *insight)
		}
	}
	for _, metric := range correlationTargets {
		if insight := computeExerciseCorrelation(entries, metric, asOf); insight != nil {
			resp.Insights = append(resp.Insights, *insight)
		}
	}

	resp.Streak = ComputeStreak(entryDates(entries), asOf)
	if resp.Streak.Current >= StreakInsightMinDays {
		resp.Insights = append(resp.Insights, models.Insight{
			Type:         models.InsightTypeStreak,
			Title:        title(fmt.Sprintf("%d day logging streak", resp.Streak.Current)),
			Description:  fmt.Sprintf("You have logged every day for %d days. Your best is %d.", resp.Streak.Current, resp.Streak.Longest),
			CurrentValue: float64(resp.Streak.Current),
			SampleSize:   resp.Streak.Current,
			Confidence:   models.ConfidenceHigh,
		})
	}

	return resp, nil
}

func (s *insightService) GetStreak(ctx context.Context, ownerID string, asOf time.Time) (models.Streak, error) {
	if ownerID == "" {
		return models.Streak{}, nil
	}
	entries, err := s.logs.ListAll(ctx, ownerID)
	if err != nil {
		return models.Streak{}, fmt.Errorf("failed to load logs: %w", err)
	}
	return ComputeStreak(entryDates(entries), asOf.UTC()), nil
}

func (s *insightService) GetHealthScore(ctx context.Context, ownerID string, asOf time.Time) (*models.HealthScore, error) {
	asOf = asOf.UTC()
	if ownerID == "" {
		return &models.HealthScore{AsOf: dayKey(asOf)}, nil
	}

	from, to := dayWindow(asOf, HealthScoreWindowDays)

	var entries []models.LogEntry
	var profile *models.UserProfile
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.logs.ListByRange(gctx, ownerID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = loadProfile(gctx, s.profiles, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load health score inputs: %w", err)
	}

	score := computeHealthScore(entries, profile)
	score.AsOf = dayKey(asOf)
	return score, nil
}

func (s *insightService) GetPersonalBests(ctx context.Context, ownerID string) (*models.PersonalBests, error) {
	if ownerID == "" {
		return &models.PersonalBests{}, nil
	}
	entries, err := s.logs.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return computePersonalBests(entries, s.now().UTC()), nil
}

func (s *insightService) GetStats(ctx context.Context, ownerID string, from, to time.Time) (*models.Stats, error) {
	if ownerID == "" || from.After(to) {
		return computeStats(nil, from, to), nil
	}
	entries, err := s.logs.ListByRange(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load logs: %w", err)
	}
	return computeStats(entries, from, to), nil
}

// =============================================================================
// Trends and correlations
// =============================================================================

// computeTrend compares the mean daily value of the 7 days ending at asOf
// with the 7 days before. It returns nil when either window has no data, the
// previous mean is 0 or the change is within TrendThreshold.
func computeTrend(entries []models.LogEntry, metric models.Metric, asOf time.Time) *models.Insight {
	daily := dailyValues(entries, metric)

	today := startOfDay(asOf)
	var cur, prev []float64
	for i := 0; i < 2*TrendWindowDays; i++ {
		v, ok := daily[today.AddDate(0, 0, -i).Format(models.DayLayout)]
		if !ok {
			continue
		}
		if i < TrendWindowDays {
			cur = append(cur, v)
		} else {
			prev = append(prev, v)
		}
	}
	if len(cur) == 0 || len(prev) == 0 {
		return nil
	}

	curMean, prevMean := mean(cur), mean(prev)
	if prevMean == 0 {
		return nil
	}
	change := (curMean - prevMean) / prevMean * 100
	if math.Abs(change) <= TrendThreshold {
		return nil
	}

	direction, verb := models.DirectionUp, "up"
	if change < 0 {
		direction, verb = models.DirectionDown, "down"
	}

	return &models.Insight{
		Type:          models.InsightTypeTrend,
		Metric:        metric,
		Title:         title(fmt.Sprintf("%s trending %s", metric, verb)),
		Description:   fmt.Sprintf("Your daily %s averaged %.2f this week, %s %.0f%% from %.2f last week.", metric, curMean, verb, math.Abs(change), prevMean),
		Direction:     direction,
		PercentChange: round2(change),
		CurrentValue:  round2(curMean),
		PreviousValue: round2(prevMean),
		SampleSize:    len(cur) + len(prev),
		Confidence:    determineTrendConfidence(len(cur) + len(prev)),
	}
}

// computeExerciseCorrelation compares the metric on days with and without
// exercise over the trailing CorrelationWindowDays. It needs
// MinDaysPerPartition days on each side and reports only when exercise days
// beat rest days by more than CorrelationMargin.
func computeExerciseCorrelation(entries []models.LogEntry, metric models.Metric, asOf time.Time) *models.Insight {
	daily := dailyValues(entries, metric)

	exercised := make(map[string]bool)
	for i := range entries {
		if entries[i].Exercise != nil {
			exercised[entries[i].Day()] = true
		}
	}

	today := startOfDay(asOf)
	var withExercise, without, flags, values []float64
	for i := 0; i < CorrelationWindowDays; i++ {
		key := today.AddDate(0, 0, -i).Format(models.DayLayout)
		v, ok := daily[key]
		if !ok {
			continue
		}
		values = append(values, v)
		if exercised[key] {
			withExercise = append(withExercise, v)
			flags = append(flags, 1)
		} else {
			without = append(without, v)
			flags = append(flags, 0)
		}
	}
	if len(withExercise) < MinDaysPerPartition || len(without) < MinDaysPerPartition {
		return nil
	}

	exMean, restMean := mean(withExercise), mean(without)
	if exMean <= restMean*(1+CorrelationMargin) {
		return nil
	}

	r, pValue := calculatePearsonCorrelation(flags, values)
	change := 0.0
	if restMean != 0 {
		change = (exMean - restMean) / restMean * 100
	}

	return &models.Insight{
		Type:          models.InsightTypeCorrelation,
		Metric:        metric,
		Title:         title(fmt.Sprintf("better %s on exercise days", metric)),
		Description:   fmt.Sprintf("On days you exercise your %s averages %.2f, compared with %.2f on rest days.", metric, exMean, restMean),
		Direction:     models.DirectionUp,
		PercentChange: round2(change),
		CurrentValue:  round2(exMean),
		PreviousValue: round2(restMean),
		SampleSize:    len(values),
		Confidence:    determineConfidence(r, pValue, len(values)),
	}
}

// =============================================================================
// Statistical Algorithms
// =============================================================================

// calculatePearsonCorrelation computes Pearson correlation coefficient and p-value
func calculatePearsonCorrelation(xValues, yValues []float64) (r, pValue float64) {
	n := len(xValues)
	if n != len(yValues) || n < 3 {
		return 0, 1
	}

	meanX := mean(xValues)
	meanY := mean(yValues)

	var numerator, denomX, denomY float64
	for i := 0; i < n; i++ {
		dx := xValues[i] - meanX
		dy := yValues[i] - meanY
		numerator += dx * dy
		denomX += dx * dx
		denomY += dy * dy
	}

	if denomX == 0 || denomY == 0 {
		return 0, 1 // No variance, no correlation
	}

	r = numerator / math.Sqrt(denomX*denomY)

	if math.Abs(r) >= 1.0 {
		pValue = 0
	} else {
		t := r * math.Sqrt(float64(n-2)/(1-r*r))
		// Two-tailed p-value using normal approximation
		pValue = 2 * (1 - normalCDF(math.Abs(t)))
	}

	return r, pValue
}

// normalCDF calculates the cumulative distribution function for standard normal
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt(2)))
}

// determineConfidence determines confidence level based on r, p-value, and sample size
func determineConfidence(r, pValue float64, sampleSize int) models.Confidence {
	absR := math.Abs(r)

	if pValue < PValueThresholdHigh && sampleSize >= 20 && absR > CorrelationThresholdHigh {
		return models.ConfidenceHigh
	}
	if pValue < PValueThresholdMedium && sampleSize >= 2*MinDaysPerPartition && absR > CorrelationThresholdMedium {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}

// determineTrendConfidence grades a trend by how many of its 14 days have data
func determineTrendConfidence(sampleSize int) models.Confidence {
	if sampleSize >= 12 {
		return models.ConfidenceHigh
	}
	if sampleSize >= 6 {
		return models.ConfidenceMedium
	}
	return models.ConfidenceLow
}

// =============================================================================
// Helpers
// =============================================================================

// metricValue returns the entry's value for metric, if logged
func metricValue(e *models.LogEntry, metric models.Metric) (float64, bool) {
	var p *float64
	switch metric {
	case models.MetricWater:
		p = e.Water
	case models.MetricSleep:
		p = e.Sleep
	case models.MetricWork:
		p = e.Work
	case models.MetricMood:
		if e.Mood == nil {
			return 0, false
		}
		return float64(*e.Mood), true
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// dailyValues maps each UTC day to the metric's daily value: the sum for
// water, sleep and work, the mean for mood. Days without the metric are absent.
func dailyValues(entries []models.LogEntry, metric models.Metric) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range entries {
		v, ok := metricValue(&entries[i], metric)
		if !ok {
			continue
		}
		day := entries[i].Day()
		sums[day] += v
		counts[day]++
	}
	if metric == models.MetricMood {
		for day, sum := range sums {
			sums[day] = sum / float64(counts[day])
		}
	}
	return sums
}

// dayWindow returns the instant range covering the n calendar days ending
// with asOf's day
func dayWindow(asOf time.Time, n int) (time.Time, time.Time) {
	today := startOfDay(asOf.UTC())
	return today.AddDate(0, 0, -(n - 1)), today.AddDate(0, 0, 1).Add(-time.Millisecond)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// loadProfile returns the user's profile, or default goals when none is stored
func loadProfile(ctx context.Context, profiles repository.ProfileRepository, ownerID string) (*models.UserProfile, error) {
	if profiles == nil {
		return models.DefaultProfile(ownerID), nil
	}
	p, err := profiles.Get(ctx, ownerID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultProfile(ownerID), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
