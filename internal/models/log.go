package models

import (
	"time"
)

const (
	// DateLayout is the canonical serialization of LogEntry.Date. Dates are
	// always stored in UTC with millisecond precision so that equal instants
	// produce equal strings.
	DateLayout = "2006-01-02T15:04:05.000Z"

	// DayLayout formats the calendar day of a LogEntry (UTC).
	DayLayout = "2006-01-02"
)

// MealType is the slot a meal belongs to
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// MealTypes lists the meal slots in the order they occur during a day.
var MealTypes = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack}

// Meal is a structured food record
type Meal struct {
	Type  MealType `json:"type" validate:"required,oneof=breakfast lunch dinner snack"`
	Items []string `json:"items,omitempty" validate:"dive,required"`
	Time  string   `json:"time,omitempty" validate:"omitempty,datetime=15:04"` // HH:MM
}

// WorkoutSet is one set of a strength exercise
type WorkoutSet struct {
	Name   string  `json:"name" validate:"required"`
	Reps   int     `json:"reps" validate:"gte=0"`
	Weight float64 `json:"weight" validate:"gte=0"`
}

// Exercise is a workout record. Duration is in minutes.
type Exercise struct {
	Type     string       `json:"type" validate:"required"`
	Duration float64      `json:"duration" validate:"gte=0"`
	Distance *float64     `json:"distance,omitempty" validate:"omitempty,gte=0"`
	Sets     []WorkoutSet `json:"sets,omitempty" validate:"dive"`
}

// CustomMetric is a user-defined measurement
type CustomMetric struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// LogFields is the payload of a LogEntry. Every field is optional; a
// partial record is valid.
type LogFields struct {
	Mood     *int           `json:"mood,omitempty" validate:"omitempty,min=1,max=5"`
	Work     *float64       `json:"work,omitempty" validate:"omitempty,gte=0"`  // hours
	Sleep    *float64       `json:"sleep,omitempty" validate:"omitempty,gte=0"` // hours
	Water    *float64       `json:"water,omitempty" validate:"omitempty,gte=0"` // liters
	Food     *string        `json:"food,omitempty"`
	Meal     *Meal          `json:"meal,omitempty"`
	Exercise *Exercise      `json:"exercise,omitempty"`
	Journal  *string        `json:"journal,omitempty"`
	Custom   []CustomMetric `json:"custom,omitempty" validate:"dive"`
}

// IsEmpty reports whether no payload field is set
func (f LogFields) IsEmpty() bool {
	return f.Mood == nil && f.Work == nil && f.Sleep == nil && f.Water == nil &&
		f.Food == nil && f.Meal == nil && f.Exercise == nil && f.Journal == nil &&
		len(f.Custom) == 0
}

// HasMeal reports whether the entry records something eaten
func (f LogFields) HasMeal() bool {
	return f.Meal != nil || (f.Food != nil && *f.Food != "")
}

// Clone returns a deep copy so a snapshot cannot alias live data.
func (f LogFields) Clone() LogFields {
	out := LogFields{
		Mood:    clonePtr(f.Mood),
		Work:    clonePtr(f.Work),
		Sleep:   clonePtr(f.Sleep),
		Water:   clonePtr(f.Water),
		Food:    clonePtr(f.Food),
		Journal: clonePtr(f.Journal),
	}
	if f.Meal != nil {
		m := *f.Meal
		m.Items = append([]string(nil), f.Meal.Items...)
		out.Meal = &m
	}
	if f.Exercise != nil {
		e := *f.Exercise
		e.Distance = clonePtr(f.Exercise.Distance)
		e.Sets = append([]WorkoutSet(nil), f.Exercise.Sets...)
		out.Exercise = &e
	}
	if f.Custom != nil {
		out.Custom = append([]CustomMetric(nil), f.Custom...)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// LogEntry is a single dated fact recorded by a user. Entries are additive:
// daily totals are computed at read time, never stored.
type LogEntry struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Date   time.Time `json:"date"`
	LogFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateKey returns the canonical string form of the entry date
func (e *LogEntry) DateKey() string {
	return FormatDate(e.Date)
}

// Day returns the UTC calendar day of the entry
func (e *LogEntry) Day() string {
	return e.Date.UTC().Format(DayLayout)
}

// FormatDate renders t in the canonical storage layout
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NormalizeDate truncates t to the precision of the canonical layout
func NormalizeDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// CreateLogRequest represents the request to create a log entry
type CreateLogRequest struct {
	ID   *string    `json:"id,omitempty"`   // optional client-generated UUIDv7
	Date *time.Time `json:"date,omitempty"` // defaults to now
	LogFields
}

// PatchLogRequest merges the present fields into an existing entry.
// A field sent as null clears it.
type PatchLogRequest struct {
	Date     *time.Time               `json:"date,omitempty"`
	Mood     Nullable[int]            `json:"mood"`
	Work     Nullable[float64]        `json:"work"`
	Sleep    Nullable[float64]        `json:"sleep"`
	Water    Nullable[float64]        `json:"water"`
	Food     Nullable[string]         `json:"food"`
	Meal     Nullable[Meal]           `json:"meal"`
	Exercise Nullable[Exercise]       `json:"exercise"`
	Journal  Nullable[string]         `json:"journal"`
	Custom   Nullable[[]CustomMetric] `json:"custom"`
}

// Apply merges the patch into f
func (p *PatchLogRequest) Apply(f *LogFields) {
	p.Mood.ApplyTo(&f.Mood)
	p.Work.ApplyTo(&f.Work)
	p.Sleep.ApplyTo(&f.Sleep)
	p.Water.ApplyTo(&f.Water)
	p.Food.ApplyTo(&f.Food)
	p.Meal.ApplyTo(&f.Meal)
	p.Exercise.ApplyTo(&f.Exercise)
	p.Journal.ApplyTo(&f.Journal)
	if p.Custom.Set {
		f.Custom = p.Custom.Value
	}
}

// PatchFromFields builds a patch that sets every non-nil field of f.
// Absent fields are left untouched, which is the import merge rule.
func PatchFromFields(f LogFields) PatchLogRequest {
	var p PatchLogRequest
	if f.Mood != nil {
		p.Mood = NewNullable(*f.Mood)
	}
	if f.Work != nil {
		p.Work = NewNullable(*f.Work)
	}
	if f.Sleep != nil {
		p.Sleep = NewNullable(*f.Sleep)
	}
	if f.Water != nil {
		p.Water = NewNullable(*f.Water)
	}
	if f.Food != nil {
		p.Food = NewNullable(*f.Food)
	}
	if f.Meal != nil {
		p.Meal = NewNullable(*f.Meal)
	}
	if f.Exercise != nil {
		p.Exercise = NewNullable(*f.Exercise)
	}
	if f.Journal != nil {
		p.Journal = NewNullable(*f.Journal)
	}
	if len(f.Custom) > 0 {
		p.Custom = NewNullable(f.Custom)
	}
	return p
}
