package client

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

// OpKind is the kind of a pending mutation
type OpKind string

const (
	OpCreate OpKind = "create"
	OpPatch  OpKind = "patch"
	OpDelete OpKind = "delete"
)

type pendingOp struct {
	kind  OpKind
	logID string
	entry models.LogEntry // speculative state for create and patch
}

// Overlay is the local view of a user's logs: the last confirmed server
// state plus speculative results of mutations that have not been
// acknowledged yet. Pending mutations are keyed by correlation id, so a
// confirmation replaces its speculative record and never duplicates it.
type Overlay struct {
	mu        sync.Mutex
	confirmed map[string]models.LogEntry
	pending   map[string]pendingOp
	order     []string
}

// NewOverlay creates an empty overlay
func NewOverlay() *Overlay {
	return &Overlay{
		confirmed: make(map[string]models.LogEntry),
		pending:   make(map[string]pendingOp),
	}
}

// Reset replaces the confirmed state with entries fetched from the server
func (o *Overlay) Reset(entries []models.LogEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.confirmed = make(map[string]models.LogEntry, len(entries))
	for _, e := range entries {
		o.confirmed[e.ID] = e
	}
}

// Apply records a pending mutation. entry is the speculative result and is
// ignored for deletes. A repeated correlation id replaces the earlier one.
func (o *Overlay) Apply(correlationID string, kind OpKind, logID string, entry models.LogEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.pending[correlationID]; !exists {
		o.order = append(o.order, correlationID)
	}
	o.pending[correlationID] = pendingOp{kind: kind, logID: logID, entry: entry}
}

// Confirm settles a pending mutation with the server's response. entry is
// nil for deletes.
func (o *Overlay) Confirm(correlationID string, entry *models.LogEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	op, ok := o.pending[correlationID]
	if !ok {
		return
	}
	o.remove(correlationID)

	if op.kind == OpDelete {
		delete(o.confirmed, op.logID)
		return
	}
	if entry != nil {
		o.confirmed[entry.ID] = *entry
	}
}

// Fail discards a pending mutation and returns cause annotated with the
// correlation id for the caller to surface
func (o *Overlay) Fail(correlationID string, cause error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.pending[correlationID]; !ok {
		return nil
	}
	o.remove(correlationID)
	return fmt.Errorf("mutation %s failed: %w", correlationID, cause)
}

// Pending returns the number of unacknowledged mutations
func (o *Overlay) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// View returns confirmed entries with pending mutations applied in order,
// newest first
func (o *Overlay) View() []models.LogEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	view := make(map[string]models.LogEntry, len(o.confirmed)+len(o.pending))
	for id, e := range o.confirmed {
		view[id] = e
	}
	for _, cid := range o.order {
		op := o.pending[cid]
		switch op.kind {
		case OpDelete:
			delete(view, op.logID)
		case OpPatch:
			if _, ok := view[op.logID]; ok {
				view[op.logID] = op.entry
			}
		case OpCreate:
			view[op.entry.ID] = op.entry
		}
	}

	out := make([]models.LogEntry, 0, len(view))
	for _, e := range view {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (o *Overlay) remove(correlationID string) {
	delete(o.pending, correlationID)
	for i, cid := range o.order {
		if cid == correlationID {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}
