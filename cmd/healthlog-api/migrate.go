package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/JonnyWalker81/healthlog/backend/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openForMigration(cmd)
		if err != nil {
			return err
		}
		defer database.Close()
		return db.Migrate(cmd.Context(), database.DB, cfg.Database.Driver)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openForMigration(cmd)
		if err != nil {
			return err
		}
		defer database.Close()
		return db.MigrateDown(cmd.Context(), database.DB, cfg.Database.Driver)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openForMigration(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		statuses, err := db.MigrationStatus(cmd.Context(), database.DB, cfg.Database.Driver)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return w.Flush()
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func openForMigration(cmd *cobra.Command) (*sqlx.DB, error) {
	return db.Open(cmd.Context(), db.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
}
