package models

import "time"

// ReportType selects which sections a report fills in
type ReportType string

const (
	ReportTypeFood     ReportType = "food"
	ReportTypeWater    ReportType = "water"
	ReportTypeExercise ReportType = "exercise"
)

// ReportTypes lists every valid report type
var ReportTypes = []ReportType{ReportTypeFood, ReportTypeWater, ReportTypeExercise}

// ReportFood is a food line of a report day
type ReportFood struct {
	MealType MealType `json:"meal_type,omitempty"`
	Time     string   `json:"time,omitempty"`
	Items    []string `json:"items,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// ReportDay groups one calendar day of a report. Sleep and mood are context
// values attached whenever present regardless of the requested types.
type ReportDay struct {
	Date     string       `json:"date"`
	Food     []ReportFood `json:"food"`
	Water    float64      `json:"water"`
	Exercise []Exercise   `json:"exercise"`
	Sleep    *float64     `json:"sleep,omitempty"`
	Mood     *float64     `json:"mood,omitempty"`
}

// Report is a date-grouped, type-filtered view of logs
type Report struct {
	Start string       `json:"start"`
	End   string       `json:"end"`
	Types []ReportType `json:"types"`
	Days  []ReportDay  `json:"days"`
}

// ImportRecord is one element of an import document. Identity and audit
// fields are accepted so exports round-trip, but they are ignored.
type ImportRecord struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	Date      *time.Time `json:"date" validate:"required"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	LogFields
}

// ImportRejection explains why a record was skipped
type ImportRejection struct {
	Index  int      `json:"index"`
	Errors []string `json:"errors"`
}

// ImportResult summarises an import
type ImportResult struct {
	Created  int               `json:"created"`
	Updated  int               `json:"updated"`
	Rejected []ImportRejection `json:"rejected"`
}

// BackupResult describes an export uploaded to object storage
type BackupResult struct {
	Key     string `json:"key"`
	Entries int    `json:"entries"`
}
