package service

import (
	"context"
	"errors"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
)

const (
	// UndoWindow is how long a ledger entry stays undoable
	UndoWindow = 5 * time.Minute
	// HistoryLimit is the number of ledger entries kept per user
	HistoryLimit = 10
)

type historyService struct {
	logs      repository.LogRepository
	history   repository.HistoryRepository
	changeLog repository.ChangeLogRepository
	tx        repository.Transactor
	publisher Publisher
	now       func() time.Time
}

// NewHistoryService creates a new undo ledger service. now defaults to
// time.Now; publisher may be nil.
func NewHistoryService(
	logs repository.LogRepository,
	history repository.HistoryRepository,
	changeLog repository.ChangeLogRepository,
	tx repository.Transactor,
	publisher Publisher,
	now func() time.Time,
) HistoryService {
	if now == nil {
		now = time.Now
	}
	return &historyService{
		logs:      logs,
		history:   history,
		changeLog: changeLog,
		tx:        tx,
		publisher: publisher,
		now:       now,
	}
}

func (s *historyService) Snapshot(ctx context.Context, ownerID, logID string, action models.HistoryAction) (*models.HistoryEntry, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	var appended *models.HistoryEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		entry, err := s.logs.GetByID(ctx, logID)
		if err != nil {
			return mapRepoError(err)
		}
		if entry.UserID != ownerID {
			return ErrForbidden
		}

		snapshot := *entry
		snapshot.LogFields = entry.LogFields.Clone()

		appended, err = s.history.Append(ctx, &models.HistoryEntry{
			UserID:    ownerID,
			LogID:     logID,
			Action:    action,
			Snapshot:  snapshot,
			CreatedAt: s.now(),
		}, HistoryLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return appended, nil
}

// Track runs fn in the snapshot's transaction. Changes fn publishes are
// sent only after that transaction commits.
func (s *historyService) Track(ctx context.Context, ownerID, logID string, action models.HistoryAction, fn func(ctx context.Context) error) error {
	ctx, release := holdPublishes(ctx)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.Snapshot(ctx, ownerID, logID, action); err != nil {
			return err
		}
		return fn(ctx)
	})
	if err != nil {
		return err
	}
	release()
	return nil
}

func (s *historyService) PeekLast(ctx context.Context, ownerID string) (*models.HistoryEntry, error) {
	if ownerID == "" {
		return nil, nil
	}
	latest, err := s.history.Latest(ctx, ownerID)
	if err != nil || latest == nil {
		return nil, err
	}
	if s.expired(latest) {
		return nil, nil // expired entries are inert
	}
	return latest, nil
}

func (s *historyService) Undo(ctx context.Context, ownerID string) (*models.UndoResult, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	var result *models.UndoResult
	var change *models.ChangeEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		latest, err := s.history.Latest(ctx, ownerID)
		if err != nil {
			return err
		}
		if latest == nil {
			return ErrNothingToUndo
		}
		if s.expired(latest) {
			return ErrUndoExpired
		}

		result = &models.UndoResult{Action: latest.Action}
		switch latest.Action {
		case models.HistoryActionUpdate:
			result.Log, change, err = s.restore(ctx, ownerID, latest)
		case models.HistoryActionDelete:
			result.Log, change, err = s.recreate(ctx, ownerID, latest)
		}
		if err != nil {
			return err
		}

		return s.history.Delete(ctx, latest.ID)
	})
	if err != nil {
		return nil, err
	}

	publishChange(ctx, s.publisher, ownerID, change)

	logger.Ctx(ctx).Info("undo applied", logger.String("action", string(result.Action)))
	return result, nil
}

// restore writes the snapshot payload back onto the live entry. A live entry
// that is gone or owned by someone else is left alone.
func (s *historyService) restore(ctx context.Context, ownerID string, h *models.HistoryEntry) (*models.LogEntry, *models.ChangeEntry, error) {
	live, err := s.logs.GetByID(ctx, h.LogID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if live.UserID != ownerID {
		return nil, nil, nil
	}

	live.Date = h.Snapshot.Date
	live.LogFields = h.Snapshot.LogFields.Clone()
	restored, err := s.logs.Update(ctx, live)
	if err != nil {
		return nil, nil, err
	}

	change, err := s.changeLog.Append(ctx, &models.ChangeLogInput{
		EntityType: models.EntityTypeLogEntry,
		Operation:  models.OperationUpdate,
		EntityID:   restored.ID,
		UserID:     ownerID,
		Data:       restored,
	})
	if err != nil {
		return nil, nil, err
	}
	return restored, change, nil
}

// recreate inserts a new entry with the deleted entry's payload
func (s *historyService) recreate(ctx context.Context, ownerID string, h *models.HistoryEntry) (*models.LogEntry, *models.ChangeEntry, error) {
	created, err := s.logs.Create(ctx, &models.LogEntry{
		UserID:    ownerID,
		Date:      h.Snapshot.Date,
		LogFields: h.Snapshot.LogFields.Clone(),
	})
	if err != nil {
		return nil, nil, err
	}

	change, err := s.changeLog.Append(ctx, &models.ChangeLogInput{
		EntityType: models.EntityTypeLogEntry,
		Operation:  models.OperationCreate,
		EntityID:   created.ID,
		UserID:     ownerID,
		Data:       created,
	})
	if err != nil {
		return nil, nil, err
	}
	return created, change, nil
}

func (s *historyService) expired(h *models.HistoryEntry) bool {
	return s.now().Sub(h.CreatedAt) > UndoWindow
}
