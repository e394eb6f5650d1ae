package models

import (
	"encoding/json"
	"time"
)

// EntityType names the table a change feed entry refers to
type EntityType string

const (
	EntityTypeLogEntry EntityType = "log_entry"
	EntityTypeProfile  EntityType = "profile"
	EntityTypeRoutine  EntityType = "routine"
)

type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// ChangeEntry is one row of the per-user change feed. ID doubles as the
// sync cursor and only grows. Data holds the full entity after a create or
// update and is empty for deletes.
type ChangeEntry struct {
	ID         int64           `json:"id"`
	EntityType EntityType      `json:"entity_type"`
	Operation  Operation       `json:"operation"`
	EntityID   string          `json:"entity_id"`
	UserID     string          `json:"-"`
	Data       json.RawMessage `json:"data,omitempty"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ChangeFeedResponse struct {
	Changes    []ChangeEntry `json:"changes"`
	NextCursor int64         `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

// IdempotencyKey is a stored response replayed for a repeated
// Idempotency-Key on the same route and user
type IdempotencyKey struct {
	Key          string          `json:"key"`
	Route        string          `json:"route"`
	UserID       string          `json:"user_id"`
	ResponseBody json.RawMessage `json:"response_body"`
	StatusCode   int             `json:"status_code"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ChangeLogInput is what services record after each tracked mutation.
// Data is marshaled to JSON by the repository.
type ChangeLogInput struct {
	EntityType EntityType
	Operation  Operation
	EntityID   string
	UserID     string
	Data       any
	DeletedAt  *time.Time
}
