package main

import (
	"fmt"
	"os"

	"github.com/JonnyWalker81/healthlog/backend/internal/config"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "healthlog-api",
	Short: "Healthlog API server",
	Long:  `A REST API server for the Healthlog habit and health tracking application.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}
		cfg = loaded
		setupLogger(cfg, cmd.Name() == "mcp")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Flush()
	},
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(replayCmd)
}

// setupLogger installs the global logger. stdio transports own stdout, so
// the MCP command logs to stderr.
func setupLogger(cfg *config.Config, stderr bool) {
	logCfg := logger.Config{
		Level:       logger.ParseLevel(cfg.Logging.Level),
		Format:      cfg.Logging.Format,
		Backend:     cfg.Logging.Backend,
		File:        cfg.Logging.File,
		SentryDSN:   cfg.Logging.SentryDSN,
		Environment: cfg.Server.Env,
		AddSource:   !cfg.IsProduction(),
	}
	if stderr {
		logCfg.Output = os.Stderr
	}
	logger.SetDefault(logger.New(logCfg))
}
