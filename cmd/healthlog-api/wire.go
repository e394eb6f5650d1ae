package main

import (
	"context"
	"fmt"

	"github.com/JonnyWalker81/healthlog/backend/internal/config"
	"github.com/JonnyWalker81/healthlog/backend/internal/db"
	"github.com/JonnyWalker81/healthlog/backend/internal/handlers"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/mcpserver"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/JonnyWalker81/healthlog/backend/internal/storage"
	"github.com/jmoiron/sqlx"
)

// openDatabase connects and, when enabled, applies pending migrations
func openDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.Open(ctx, db.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx, database.DB, cfg.Database.Driver); err != nil {
			database.Close()
			return nil, err
		}
	}
	return database, nil
}

// openBlobStore returns nil when no bucket is configured, which disables
// backups
func openBlobStore(ctx context.Context, cfg *config.Config) (service.BlobStore, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("object storage not configured, backups disabled")
		return nil, nil
	}

	store, err := storage.NewS3Store(ctx, storage.Config{
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKeyID,
		SecretKey: cfg.Storage.SecretAccessKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	logger.Info("object storage configured", logger.String("bucket", cfg.Storage.Bucket))
	return store, nil
}

// buildServices wires repositories into services. publisher and blobs may
// be nil.
func buildServices(database *sqlx.DB, publisher service.Publisher, blobs service.BlobStore) handlers.Services {
	logRepo := repository.NewLogRepository(database)
	historyRepo := repository.NewHistoryRepository(database)
	changeLogRepo := repository.NewChangeLogRepository(database)
	foodItemRepo := repository.NewFoodItemRepository(database)
	catalogRepo := repository.NewCatalogRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	tx := repository.NewTransactor(database)

	logService := service.NewLogService(logRepo, foodItemRepo, changeLogRepo, notificationRepo, tx, publisher)

	return handlers.Services{
		Logs:          logService,
		History:       service.NewHistoryService(logRepo, historyRepo, changeLogRepo, tx, publisher, nil),
		Insights:      service.NewInsightService(logRepo, profileRepo),
		Nudges:        service.NewNudgeService(logRepo, profileRepo),
		Reports:       service.NewReportService(logRepo),
		Export:        service.NewExportService(logRepo, logService, blobs),
		Profiles:      service.NewProfileService(profileRepo, changeLogRepo, tx, publisher),
		Catalog:       service.NewCatalogService(catalogRepo, foodItemRepo, changeLogRepo, tx, publisher),
		Notifications: service.NewNotificationService(notificationRepo),
		Sync:          service.NewSyncService(logRepo, changeLogRepo),
	}
}

func mcpServices(svc handlers.Services) mcpserver.Services {
	return mcpserver.Services{
		Logs:     svc.Logs,
		History:  svc.History,
		Insights: svc.Insights,
		Nudges:   svc.Nudges,
		Reports:  svc.Reports,
	}
}
