package main

import (
	"errors"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpUserID string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the log store as MCP tools over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout. Every tool acts
as the user given with --user.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpUserID, "user", "", "User id the tools act as (required)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	if mcpUserID == "" {
		return errors.New("--user is required")
	}

	database, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	svc := buildServices(database, nil, nil)
	srv := mcpserver.New(mcpServices(svc), mcpUserID, version)

	logger.Info("mcp server ready", logger.String("user_id", mcpUserID))
	return srv.ServeStdio()
}
