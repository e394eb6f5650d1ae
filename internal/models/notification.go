package models

import "time"

// NotificationKind identifies what produced a notification
type NotificationKind string

const (
	NotificationStreakMilestone NotificationKind = "streak_milestone"
	NotificationPersonalRecord  NotificationKind = "personal_record"
)

// Notification is an in-app message for a user
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
