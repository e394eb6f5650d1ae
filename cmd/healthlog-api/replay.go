package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/JonnyWalker81/healthlog/backend/internal/client"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/spf13/cobra"
)

var (
	replayFile    string
	replayBaseURL string
	replayToken   string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay queued offline mutations against a server",
	Long: `Read a JSON array of queued operations and send them in order. Each
operation carries its correlation id as the Idempotency-Key, so replaying a
file twice is safe.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "JSON file of queued operations (required)")
	replayCmd.Flags().StringVar(&replayBaseURL, "base-url", "http://localhost:8080", "API base URL")
	replayCmd.Flags().StringVar(&replayToken, "token", os.Getenv("HEALTHLOG_TOKEN"), "Bearer token (default $HEALTHLOG_TOKEN)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	if replayFile == "" {
		return errors.New("--file is required")
	}

	data, err := os.ReadFile(replayFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", replayFile, err)
	}
	var ops []client.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return fmt.Errorf("failed to parse %s: %w", replayFile, err)
	}

	queue := client.NewQueue(client.New(replayBaseURL, replayToken), client.NewOverlay())
	for _, op := range ops {
		queue.Enqueue(op)
	}

	result := queue.Flush(cmd.Context())
	logger.Info("replay finished",
		logger.Int("applied", result.Applied),
		logger.Int("dropped", result.Dropped),
		logger.Int("remaining", queue.Len()),
	)
	for _, err := range result.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
	if result.Dropped > 0 {
		return fmt.Errorf("%d of %d operations were dropped", result.Dropped, len(ops))
	}
	return nil
}
