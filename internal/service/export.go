package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
)

// ErrBackupDisabled is returned by Backup when no object storage is configured
var ErrBackupDisabled = errors.New("backup storage not configured")

type exportService struct {
	logs   repository.LogRepository
	logSvc LogService
	blobs  BlobStore
	now    func() time.Time
}

// NewExportService creates a new export service. Imports go through logSvc
// so they are validated and reach the change feed like any other write,
// without achievement notifications. blobs may be nil.
func NewExportService(logs repository.LogRepository, logSvc LogService, blobs BlobStore) ExportService {
	return &exportService{
		logs:   logs,
		logSvc: logSvc,
		blobs:  blobs,
		now:    time.Now,
	}
}

// Export returns every entry of the owner, oldest first
func (s *exportService) Export(ctx context.Context, ownerID string) ([]models.LogEntry, error) {
	if ownerID == "" {
		return []models.LogEntry{}, nil
	}
	entries, err := s.logs.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to export logs: %w", err)
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	return entries, nil
}

// Import validates each record on its own. Invalid records are reported and
// skipped; the rest are upserted by exact canonical date.
func (s *exportService) Import(ctx context.Context, ownerID string, records []json.RawMessage) (*models.ImportResult, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	ctx = muteAchievements(ctx)
	result := &models.ImportResult{Rejected: []models.ImportRejection{}}
	for i, raw := range records {
		rec, err := decodeImportRecord(raw)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				result.Rejected = append(result.Rejected, models.ImportRejection{Index: i, Errors: verr.Messages()})
				continue
			}
			return nil, err
		}

		created, err := s.upsert(ctx, ownerID, rec)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				result.Rejected = append(result.Rejected, models.ImportRejection{Index: i, Errors: verr.Messages()})
				continue
			}
			return nil, fmt.Errorf("failed to import record %d: %w", i, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	logger.Ctx(ctx).Info("import finished",
		logger.Int("created", result.Created),
		logger.Int("updated", result.Updated),
		logger.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// decodeImportRecord parses and validates one element of an import document
func decodeImportRecord(raw json.RawMessage) (*models.ImportRecord, error) {
	var rec models.ImportRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, invalidField("record", "json", "record is not a valid log object")
	}
	if err := validateStruct(&rec); err != nil {
		return nil, err
	}
	if rec.LogFields.IsEmpty() {
		return nil, invalidField("fields", "required", "at least one field must be set")
	}
	return &rec, nil
}

// upsert patches the entry with the record's date or creates a new one.
// Identity and audit fields of the record are ignored.
func (s *exportService) upsert(ctx context.Context, ownerID string, rec *models.ImportRecord) (bool, error) {
	date := models.NormalizeDate(*rec.Date)

	existing, err := s.logs.GetByUserAndDate(ctx, ownerID, date)
	switch {
	case err == nil:
		patch := models.PatchFromFields(rec.LogFields)
		_, err = s.logSvc.Patch(ctx, ownerID, existing.ID, &patch)
		return false, err
	case errors.Is(err, repository.ErrNotFound):
		_, err = s.logSvc.Create(ctx, ownerID, &models.CreateLogRequest{
			Date:      &date,
			LogFields: rec.LogFields.Clone(),
		})
		return true, err
	default:
		return false, err
	}
}

// Backup uploads the export document to object storage
func (s *exportService) Backup(ctx context.Context, ownerID string) (*models.BackupResult, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if s.blobs == nil {
		return nil, ErrBackupDisabled
	}

	entries, err := s.Export(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	key := fmt.Sprintf("backups/%s/%s.json", ownerID, s.now().UTC().Format("20060102T150405Z"))
	if err := s.blobs.Put(ctx, key, body, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to upload backup: %w", err)
	}

	logger.Ctx(ctx).Info("backup uploaded",
		logger.String("key", key),
		logger.Int("entries", len(entries)),
	)
	return &models.BackupResult{Key: key, Entries: len(entries)}, nil
}
