package client

import (
	"context"
	"sync"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/google/uuid"
)

const (
	// MaxAttempts is how often a queued mutation is tried before it is dropped
	MaxAttempts = 3
	// DefaultRetryDelay is multiplied by the attempt number between tries
	DefaultRetryDelay = 500 * time.Millisecond
)

// Operation is a queued mutation
type Operation struct {
	CorrelationID string                   `json:"correlation_id"`
	Kind          OpKind                   `json:"kind"`
	LogID         string                   `json:"log_id,omitempty"`
	Create        *models.CreateLogRequest `json:"create,omitempty"`
	Patch         *models.PatchLogRequest  `json:"patch,omitempty"`
}

// FlushResult counts the outcome of a Flush
type FlushResult struct {
	Applied int
	Dropped int
	// Errors holds the surfaced failure of every dropped operation
	Errors []error
}

// Queue buffers mutations while offline and replays them in order
type Queue struct {
	mu         sync.Mutex
	flushMu    sync.Mutex
	ops        []Operation
	client     *Client
	overlay    *Overlay
	retryDelay time.Duration
}

// NewQueue creates a queue that replays through c. overlay may be nil.
func NewQueue(c *Client, overlay *Overlay) *Queue {
	return &Queue{client: c, overlay: overlay, retryDelay: DefaultRetryDelay}
}

// Enqueue appends op, assigning a correlation id when it has none
func (q *Queue) Enqueue(op Operation) Operation {
	if op.CorrelationID == "" {
		op.CorrelationID = uuid.NewString()
	}
	q.mu.Lock()
	q.ops = append(q.ops, op)
	q.mu.Unlock()
	return op
}

// EnqueueCreate queues a create and shows it in the overlay right away.
// The entry gets a client-generated UUIDv7 so the confirmed record keeps the
// same id as the speculative one.
func (q *Queue) EnqueueCreate(req *models.CreateLogRequest, now time.Time) (Operation, error) {
	if req.ID == nil {
		id, err := uuid.NewV7()
		if err != nil {
			return Operation{}, err
		}
		s := id.String()
		req.ID = &s
	}
	if req.Date == nil {
		d := now
		req.Date = &d
	}

	op := q.Enqueue(Operation{Kind: OpCreate, LogID: *req.ID, Create: req})
	if q.overlay != nil {
		q.overlay.Apply(op.CorrelationID, OpCreate, *req.ID, models.LogEntry{
			ID:        *req.ID,
			Date:      models.NormalizeDate(*req.Date),
			LogFields: req.LogFields.Clone(),
		})
	}
	return op, nil
}

// EnqueuePatch queues a patch of current and shows the patched entry in the
// overlay
func (q *Queue) EnqueuePatch(current models.LogEntry, patch *models.PatchLogRequest) Operation {
	op := q.Enqueue(Operation{Kind: OpPatch, LogID: current.ID, Patch: patch})
	if q.overlay != nil {
		next := current
		next.LogFields = current.LogFields.Clone()
		patch.Apply(&next.LogFields)
		if patch.Date != nil {
			next.Date = models.NormalizeDate(*patch.Date)
		}
		q.overlay.Apply(op.CorrelationID, OpPatch, current.ID, next)
	}
	return op
}

// EnqueueDelete queues a delete and hides the entry in the overlay
func (q *Queue) EnqueueDelete(logID string) Operation {
	op := q.Enqueue(Operation{Kind: OpDelete, LogID: logID})
	if q.overlay != nil {
		q.overlay.Apply(op.CorrelationID, OpDelete, logID, models.LogEntry{})
	}
	return op
}

// Len returns the number of queued operations
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Flush replays queued operations first-in first-out. Each is tried up to
// MaxAttempts times; permanent failures are dropped without retrying. When
// ctx is cancelled the unsent operations stay queued.
func (q *Queue) Flush(ctx context.Context) FlushResult {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	var result FlushResult
	for {
		q.mu.Lock()
		if len(q.ops) == 0 {
			q.mu.Unlock()
			return result
		}
		op := q.ops[0]
		q.mu.Unlock()

		entry, err := q.send(ctx, op)
		if ctx.Err() != nil {
			return result
		}

		q.mu.Lock()
		q.ops = q.ops[1:]
		q.mu.Unlock()

		if err != nil {
			logger.Ctx(ctx).Error("dropping queued mutation",
				logger.String("correlation_id", op.CorrelationID),
				logger.String("kind", string(op.Kind)),
				logger.String("log_id", op.LogID),
				logger.Err(err),
			)
			result.Dropped++
			if q.overlay != nil {
				err = q.overlay.Fail(op.CorrelationID, err)
			}
			result.Errors = append(result.Errors, err)
			continue
		}

		result.Applied++
		if q.overlay != nil {
			q.overlay.Confirm(op.CorrelationID, entry)
		}
	}
}

func (q *Queue) send(ctx context.Context, op Operation) (*models.LogEntry, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		entry, err := q.sendOnce(ctx, op)
		if err == nil {
			return entry, nil
		}
		lastErr = err
		if !isTemporary(err) || attempt == MaxAttempts {
			break
		}

		logger.Ctx(ctx).Warn("retrying queued mutation",
			logger.String("correlation_id", op.CorrelationID),
			logger.Int("attempt", attempt),
			logger.Err(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.retryDelay * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (q *Queue) sendOnce(ctx context.Context, op Operation) (*models.LogEntry, error) {
	switch op.Kind {
	case OpCreate:
		return q.client.CreateLog(ctx, op.Create, op.CorrelationID)
	case OpPatch:
		return q.client.PatchLog(ctx, op.LogID, op.Patch, op.CorrelationID)
	default:
		return nil, q.client.DeleteLog(ctx, op.LogID, op.CorrelationID)
	}
}
