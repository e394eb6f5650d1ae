package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// dialectMap maps database drivers to Goose dialect names
var dialectMap = map[string]goose.Dialect{
	DriverSQLite:   goose.DialectSQLite3,
	DriverPostgres: goose.DialectPostgres,
}

// migrationDirs maps database drivers to their migration directory. The two
// schemas differ only in how auto-increment cursors are declared.
var migrationDirs = map[string]string{
	DriverSQLite:   "migrations/sqlite",
	DriverPostgres: "migrations/postgres",
}

// newProvider builds a goose provider for the driver's migration set
func newProvider(db *sql.DB, driver string) (*goose.Provider, error) {
	dialect, ok := dialectMap[driver]
	if !ok {
		return nil, fmt.Errorf("no migration dialect for driver %q", driver)
	}

	migrationsDir, err := fs.Sub(migrationsFS, migrationDirs[driver])
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations directory: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Migrate applies all pending migrations
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	provider, err := newProvider(db, driver)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug("applied migration",
			logger.String("source", r.Source.Path),
			logger.Duration("duration", r.Duration),
		)
	}
	logger.Info("migrations completed", logger.Int("applied", len(results)))
	return nil
}

// MigrateDown rolls back the most recent migration
func MigrateDown(ctx context.Context, db *sql.DB, driver string) error {
	provider, err := newProvider(db, driver)
	if err != nil {
		return err
	}

	result, err := provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	logger.Info("rolled back migration", logger.String("source", result.Source.Path))
	return nil
}

// MigrationStatus reports the applied state of every known migration
func MigrationStatus(ctx context.Context, db *sql.DB, driver string) ([]*goose.MigrationStatus, error) {
	provider, err := newProvider(db, driver)
	if err != nil {
		return nil, err
	}
	return provider.Status(ctx)
}
