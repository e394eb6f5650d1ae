// Package db opens the SQL store and applies embedded migrations.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Config holds database connection settings
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the database and verifies the connection. The caller owns
// the returned handle and must Close it on shutdown.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// SQLite: create data directory if needed
	if cfg.Driver == DriverSQLite {
		if path := sqlitePath(cfg.DSN); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected",
		logger.String("driver", cfg.Driver),
		logger.Int("max_open_conns", maxOpen),
	)

	return db, nil
}

// OpenMemory opens a migrated in-memory SQLite database. It is used by tests
// and by one-off CLI runs that don't need persistence.
func OpenMemory(ctx context.Context) (*sqlx.DB, error) {
	db, err := Open(ctx, Config{
		Driver:       DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1, // every connection to :memory: is a separate database
		MaxIdleConns: 1,
	})
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(0)

	if err := Migrate(ctx, db.DB, DriverSQLite); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// sqlitePath extracts the file path from a SQLite DSN. It returns "" for
// in-memory databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}
