package models

import "time"

// HistoryAction is the kind of mutation a HistoryEntry can revert
type HistoryAction string

const (
	HistoryActionUpdate HistoryAction = "update"
	HistoryActionDelete HistoryAction = "delete"
)

// HistoryEntry is a snapshot of a LogEntry taken just before an update or
// delete. Only the most recent entries per user are kept.
type HistoryEntry struct {
	ID        int64         `json:"id"` // insertion sequence
	UserID    string        `json:"user_id"`
	LogID     string        `json:"log_id"`
	Action    HistoryAction `json:"action"`
	Snapshot  LogEntry      `json:"snapshot"`
	CreatedAt time.Time     `json:"created_at"`
}

// UndoResult is returned after a successful undo
type UndoResult struct {
	Action HistoryAction `json:"action"`
	// Log is the restored entry. Nil when the live entry of an undone update
	// no longer exists.
	Log *LogEntry `json:"log,omitempty"`
}
