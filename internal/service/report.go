package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// MaxReportDays is the longest range a report may cover
const MaxReportDays = 366

type reportService struct {
	logs repository.LogRepository
	md   goldmark.Markdown
}

// NewReportService creates a new report service
func NewReportService(logs repository.LogRepository) ReportService {
	return &reportService{
		logs: logs,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(goldmarkhtml.WithXHTML()),
		),
	}
}

// GenerateReport groups logs by UTC calendar day for every day in
// [start, end]. Food, water and exercise are filled only for the requested
// types; no types means all of them.
func (s *reportService) GenerateReport(ctx context.Context, ownerID string, start, end time.Time, types []models.ReportType) (*models.Report, error) {
	startDay, endDay := startOfDay(start.UTC()), startOfDay(end.UTC())
	if startDay.After(endDay) {
		return nil, invalidField("start", "ltefield", "start must not be after end")
	}
	numDays := int(endDay.Sub(startDay).Hours()/24) + 1
	if numDays > MaxReportDays {
		return nil, invalidField("end", "max", fmt.Sprintf("a report covers at most %d days", MaxReportDays))
	}

	wanted, err := parseReportTypes(types)
	if err != nil {
		return nil, err
	}

	var entries []models.LogEntry
	if ownerID != "" {
		entries, err = s.logs.ListByRange(ctx, ownerID, startDay, endDay.AddDate(0, 0, 1).Add(-time.Millisecond))
		if err != nil {
			return nil, fmt.Errorf("failed to load logs: %w", err)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })

	byDay := make(map[string][]models.LogEntry)
	for _, e := range entries {
		byDay[e.Day()] = append(byDay[e.Day()], e)
	}

	report := &models.Report{
		Start: dayKey(startDay),
		End:   dayKey(endDay),
		Types: make([]models.ReportType, 0, len(wanted)),
		Days:  make([]models.ReportDay, 0, numDays),
	}
	for _, t := range models.ReportTypes {
		if wanted[t] {
			report.Types = append(report.Types, t)
		}
	}

	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DayLayout)
		report.Days = append(report.Days, buildReportDay(key, byDay[key], wanted))
	}
	return report, nil
}

func parseReportTypes(types []models.ReportType) (map[models.ReportType]bool, error) {
	wanted := make(map[models.ReportType]bool)
	if len(types) == 0 {
		for _, t := range models.ReportTypes {
			wanted[t] = true
		}
		return wanted, nil
	}

	var invalid []FieldError
	for i, t := range types {
		switch t {
		case models.ReportTypeFood, models.ReportTypeWater, models.ReportTypeExercise:
			wanted[t] = true
		default:
			invalid = append(invalid, FieldError{
				Field:   fmt.Sprintf("types[%d]", i),
				Message: fmt.Sprintf("unknown report type %q", t),
				Code:    "oneof",
			})
		}
	}
	if len(invalid) > 0 {
		return nil, &ValidationError{Errors: invalid}
	}
	return wanted, nil
}

func buildReportDay(day string, entries []models.LogEntry, wanted map[models.ReportType]bool) models.ReportDay {
	rd := models.ReportDay{
		Date:     day,
		Food:     []models.ReportFood{},
		Exercise: []models.Exercise{},
	}

	var sleep, mood float64
	var hasSleep bool
	var moods int
	for i := range entries {
		e := &entries[i]
		if wanted[models.ReportTypeFood] && e.HasMeal() {
			rd.Food = append(rd.Food, reportFood(e))
		}
		if wanted[models.ReportTypeWater] && e.Water != nil {
			rd.Water += *e.Water
		}
		if wanted[models.ReportTypeExercise] && e.Exercise != nil {
			rd.Exercise = append(rd.Exercise, *e.LogFields.Clone().Exercise)
		}
		if e.Sleep != nil {
			sleep += *e.Sleep
			hasSleep = true
		}
		if e.Mood != nil {
			mood += float64(*e.Mood)
			moods++
		}
	}

	rd.Water = round2(rd.Water)
	if hasSleep {
		v := round2(sleep)
		rd.Sleep = &v
	}
	if moods > 0 {
		v := round2(mood / float64(moods))
		rd.Mood = &v
	}
	return rd
}

func reportFood(e *models.LogEntry) models.ReportFood {
	var f models.ReportFood
	if e.Food != nil {
		f.Text = *e.Food
	}
	if e.Meal != nil {
		f.MealType = e.Meal.Type
		f.Items = append([]string(nil), e.Meal.Items...)
		f.Time = e.Meal.Time
	}
	if f.Time == "" {
		f.Time = e.Date.UTC().Format("15:04")
	}
	return f
}

// RenderHTML renders the report as an HTML table for sharing
func (s *reportService) RenderHTML(report *models.Report) ([]byte, error) {
	var src bytes.Buffer
	fmt.Fprintf(&src, "# Health report %s to %s\n\n", report.Start, report.End)

	include := make(map[models.ReportType]bool)
	for _, t := range report.Types {
		include[t] = true
	}

	header := []string{"Date"}
	if include[models.ReportTypeFood] {
		header = append(header, "Food")
	}
	if include[models.ReportTypeWater] {
		header = append(header, "Water (L)")
	}
	if include[models.ReportTypeExercise] {
		header = append(header, "Exercise")
	}
	header = append(header, "Sleep (h)", "Mood")
	writeRow(&src, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&src, sep)

	for _, d := range report.Days {
		row := []string{d.Date}
		if include[models.ReportTypeFood] {
			row = append(row, formatFood(d.Food))
		}
		if include[models.ReportTypeWater] {
			row = append(row, fmt.Sprintf("%.2f", d.Water))
		}
		if include[models.ReportTypeExercise] {
			row = append(row, formatExercise(d.Exercise))
		}
		row = append(row, formatOptional(d.Sleep), formatOptional(d.Mood))
		writeRow(&src, row)
	}

	var body bytes.Buffer
	if err := s.md.Convert(src.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>Health report %s to %s</title>\n", html.EscapeString(report.Start), html.EscapeString(report.End))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, cells []string) {
	buf.WriteString("|")
	for _, c := range cells {
		buf.WriteString(" ")
		buf.WriteString(markdownCell(c))
		buf.WriteString(" |")
	}
	buf.WriteString("\n")
}

// markdownCell keeps user text on one line and out of table syntax
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return s
}

func formatFood(food []models.ReportFood) string {
	parts := make([]string, 0, len(food))
	for _, f := range food {
		var label string
		if f.MealType != "" {
			label = string(f.MealType) + " " + f.Time + ": "
		} else {
			label = f.Time + ": "
		}
		items := strings.Join(f.Items, ", ")
		switch {
		case items != "" && f.Text != "":
			label += items + " (" + f.Text + ")"
		case items != "":
			label += items
		default:
			label += f.Text
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "; ")
}

func formatExercise(exercises []models.Exercise) string {
	parts := make([]string, 0, len(exercises))
	for _, e := range exercises {
		parts = append(parts, fmt.Sprintf("%s %.0f min", e.Type, e.Duration))
	}
	return strings.Join(parts, "; ")
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}
