package service

import (
	"context"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChangeLimit is the page size of the change feed
	DefaultChangeLimit = 100
	// MaxChangeLimit caps a requested change feed page
	MaxChangeLimit = 1000
)

// SyncStatus summarises what a client needs to decide between an
// incremental and a full sync
type SyncStatus struct {
	LastLog         *time.Time `json:"last_log,omitempty"`
	LogCount        int        `json:"log_count"`
	LatestCursor    int64      `json:"latest_cursor"`
	Status          string     `json:"status"`
	Recommendations []string   `json:"recommendations,omitempty"`
}

type syncService struct {
	logs      repository.LogRepository
	changeLog repository.ChangeLogRepository
}

// NewSyncService creates a new change feed service
func NewSyncService(logs repository.LogRepository, changeLog repository.ChangeLogRepository) SyncService {
	return &syncService{logs: logs, changeLog: changeLog}
}

func (s *syncService) GetChanges(ctx context.Context, ownerID string, cursor int64, limit int) (*models.ChangeFeedResponse, error) {
	if ownerID == "" {
		return &models.ChangeFeedResponse{Changes: []models.ChangeEntry{}, NextCursor: cursor}, nil
	}
	if limit <= 0 {
		limit = DefaultChangeLimit
	}
	if limit > MaxChangeLimit {
		limit = MaxChangeLimit
	}
	if cursor < 0 {
		cursor = 0
	}
	return s.changeLog.GetSince(ctx, ownerID, cursor, limit)
}

func (s *syncService) GetSyncStatus(ctx context.Context, ownerID string) (*SyncStatus, error) {
	if ownerID == "" {
		return &SyncStatus{Status: "all_synced"}, nil
	}

	var entries []models.LogEntry
	var latestCursor int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.logs.ListAll(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		latestCursor, err = s.changeLog.GetLatestCursor(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := &SyncStatus{
		LogCount:     len(entries),
		LatestCursor: latestCursor,
	}
	if len(entries) > 0 {
		last := entries[len(entries)-1].Date
		status.LastLog = &last
	}
	status.Status, status.Recommendations = computeSyncRecommendations(status.LogCount, latestCursor)
	return status, nil
}

func computeSyncRecommendations(logCount int, latestCursor int64) (string, []string) {
	var recs []string
	if logCount == 0 {
		recs = append(recs, "No logs recorded yet. Start tracking to see data.")
	}
	status := "all_synced"
	if latestCursor == 0 && logCount > 0 {
		status = "resync_recommended"
		recs = append(recs, "Change log is empty but data exists. Consider a full sync.")
	}
	if len(recs) > 0 && status == "all_synced" {
		status = "pending_changes"
	}
	return status, recs
}
