package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("create_log",
		mcp.WithDescription("Records a health log entry. At least one metric is required."),
		mcp.WithString("date", mcp.Description("Optional RFC 3339 timestamp or YYYY-MM-DD day. Defaults to now.")),
		mcp.WithNumber("mood", mcp.Description("Mood from 1 to 5.")),
		mcp.WithNumber("sleep", mcp.Description("Hours slept.")),
		mcp.WithNumber("water", mcp.Description("Liters of water.")),
		mcp.WithNumber("work", mcp.Description("Hours worked.")),
		mcp.WithString("food", mcp.Description("Free-text food description.")),
		mcp.WithString("journal", mcp.Description("Free-text journal note.")),
	), s.handleCreateLog)

	s.mcp.AddTool(mcp.NewTool("list_logs",
		mcp.WithDescription("Lists log entries between two days, newest first."),
		mcp.WithString("from", mcp.Required(), mcp.Description("First day, YYYY-MM-DD.")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD.")),
	), s.handleListLogs)

	s.mcp.AddTool(mcp.NewTool("delete_log",
		mcp.WithDescription("Deletes a log entry. The deletion can be undone."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Log entry id.")),
	), s.handleDeleteLog)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Reverts the most recent update or delete made within the last five minutes."),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Returns aggregate statistics between two days."),
		mcp.WithString("from", mcp.Required(), mcp.Description("First day, YYYY-MM-DD.")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD.")),
	), s.handleStats)

	s.mcp.AddTool(mcp.NewTool("get_streak",
		mcp.WithDescription("Returns the current and longest consecutive-day logging streak."),
	), s.handleStreak)

	s.mcp.AddTool(mcp.NewTool("get_insights",
		mcp.WithDescription("Returns trends, correlations, the health score and personal bests."),
	), s.handleInsights)

	s.mcp.AddTool(mcp.NewTool("get_nudges",
		mcp.WithDescription("Returns prioritized reminders for right now."),
	), s.handleNudges)

	s.mcp.AddTool(mcp.NewTool("generate_report",
		mcp.WithDescription("Builds a per-day report for a date range."),
		mcp.WithString("start", mcp.Required(), mcp.Description("First day, YYYY-MM-DD.")),
		mcp.WithString("end", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD.")),
		mcp.WithString("types", mcp.Description("Optional comma-separated list of food, water, exercise. Defaults to all.")),
	), s.handleReport)
}

func (s *Server) handleCreateLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	req := &models.CreateLogRequest{}

	if raw, ok := args["date"].(string); ok && raw != "" {
		date, err := parseTimestamp(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Date = &date
	}
	if v, ok := args["mood"].(float64); ok {
		mood := int(v)
		req.Mood = &mood
	}
	req.Sleep = floatArg(args, "sleep")
	req.Water = floatArg(args, "water")
	req.Work = floatArg(args, "work")
	req.Food = stringArg(args, "food")
	req.Journal = stringArg(args, "journal")

	entry, err := s.svc.Logs.Create(ctx, s.userID, req)
	if err != nil {
		return toolError("create log", err), nil
	}
	return jsonResult(entry)
}

func (s *Server) handleListLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := dayRange(request.Params.Arguments, "from", "to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.svc.Logs.ListByRange(ctx, s.userID, from, to)
	if err != nil {
		return toolError("list logs", err), nil
	}
	return jsonResult(entries)
}

func (s *Server) handleDeleteLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := request.Params.Arguments["id"].(string)
	if id == "" {
		return mcp.NewToolResultError("'id' parameter is required."), nil
	}

	err := s.svc.History.Track(ctx, s.userID, id, models.HistoryActionDelete, func(ctx context.Context) error {
		return s.svc.Logs.Delete(ctx, s.userID, id)
	})
	if errors.Is(err, service.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("Log %s not found, nothing to delete.", id)), nil
	}
	if err != nil {
		return toolError("delete log", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Log %s deleted.", id)), nil
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.svc.History.Undo(ctx, s.userID)
	if err != nil {
		return toolError("undo", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := dayRange(request.Params.Arguments, "from", "to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stats, err := s.svc.Insights.GetStats(ctx, s.userID, from, to)
	if err != nil {
		return toolError("compute stats", err), nil
	}
	return jsonResult(stats)
}

func (s *Server) handleStreak(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	streak, err := s.svc.Insights.GetStreak(ctx, s.userID, s.now())
	if err != nil {
		return toolError("compute streak", err), nil
	}
	return jsonResult(streak)
}

func (s *Server) handleInsights(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insights, err := s.svc.Insights.GetInsights(ctx, s.userID, s.now())
	if err != nil {
		return toolError("compute insights", err), nil
	}
	return jsonResult(insights)
}

func (s *Server) handleNudges(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nudges, err := s.svc.Nudges.SmartNudges(ctx, s.userID, s.now())
	if err != nil {
		return toolError("compute nudges", err), nil
	}
	return jsonResult(nudges)
}

func (s *Server) handleReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	start, end, err := dayRange(args, "start", "end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var types []models.ReportType
	if raw, _ := args["types"].(string); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, models.ReportType(t))
			}
		}
	}

	report, err := s.svc.Reports.GenerateReport(ctx, s.userID, start, end, types)
	if err != nil {
		return toolError("generate report", err), nil
	}
	return jsonResult(report)
}

func floatArg(args map[string]interface{}, name string) *float64 {
	if v, ok := args[name].(float64); ok {
		return &v
	}
	return nil
}

func stringArg(args map[string]interface{}, name string) *string {
	if v, ok := args[name].(string); ok && v != "" {
		return &v
	}
	return nil
}

func dayRange(args map[string]interface{}, fromKey, toKey string) (time.Time, time.Time, error) {
	fromRaw, _ := args[fromKey].(string)
	toRaw, _ := args[toKey].(string)
	if fromRaw == "" || toRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("'%s' and '%s' parameters are required", fromKey, toKey)
	}
	from, err := time.Parse(models.DayLayout, fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("'%s' must be YYYY-MM-DD", fromKey)
	}
	to, err := time.Parse(models.DayLayout, toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("'%s' must be YYYY-MM-DD", toKey)
	}
	// include the whole last day
	return from, to.Add(24*time.Hour - time.Millisecond), nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(models.DayLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("'date' must be an RFC 3339 timestamp or YYYY-MM-DD")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError turns a service error into a tool-level error result. Internal
// failures are logged and reported generically.
func toolError(action string, err error) *mcp.CallToolResult {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return mcp.NewToolResultError("Invalid input: " + strings.Join(verr.Messages(), "; "))
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, service.ErrUndoExpired),
		errors.Is(err, service.ErrUnauthenticated):
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
	default:
		logger.Error("mcp tool failed", logger.String("action", action), logger.Err(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s. Please try again.", action))
	}
}
