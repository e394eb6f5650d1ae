// Package client is an HTTP client for the healthlog API with an offline
// mutation queue and an optimistic overlay for pending writes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/apierror"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

// IdempotencyKeyHeader carries the correlation id of a mutation
const IdempotencyKeyHeader = "Idempotency-Key"

// DefaultTimeout bounds every request
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from a problem details body
type APIError struct {
	StatusCode int
	Problem    *apierror.ProblemDetails
}

func (e *APIError) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Problem.Error())
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Temporary reports whether retrying the request may succeed
func (e *APIError) Temporary() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// Client talks to the /api/v1 surface
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a client. token may be empty for anonymous queries.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// CreateLog creates an entry. key is sent as the idempotency key when set.
func (c *Client) CreateLog(ctx context.Context, req *models.CreateLogRequest, key string) (*models.LogEntry, error) {
	var entry models.LogEntry
	if err := c.do(ctx, http.MethodPost, "/api/v1/logs", req, key, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// PatchLog merges patch into an entry
func (c *Client) PatchLog(ctx context.Context, id string, patch *models.PatchLogRequest, key string) (*models.LogEntry, error) {
	var entry models.LogEntry
	if err := c.do(ctx, http.MethodPatch, "/api/v1/logs/"+id, patch, key, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteLog deletes an entry. Deleting a missing entry succeeds.
func (c *Client) DeleteLog(ctx context.Context, id, key string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/logs/"+id, nil, key, nil)
}

// ListLogs returns entries between from and to, newest first
func (c *Client) ListLogs(ctx context.Context, from, to time.Time) ([]models.LogEntry, error) {
	path := fmt.Sprintf("/api/v1/logs?from=%s&to=%s", from.UTC().Format(models.DayLayout), to.UTC().Format(models.DayLayout))
	var entries []models.LogEntry
	if err := c.do(ctx, http.MethodGet, path, nil, "", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Undo reverts the newest tracked mutation
func (c *Client) Undo(ctx context.Context) (*models.UndoResult, error) {
	var result models.UndoResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/undo", nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, key string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var problem apierror.ProblemDetails
		if json.Unmarshal(data, &problem) == nil && problem.Status != 0 {
			apiErr.Problem = &problem
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// isTemporary reports whether err may clear up on retry. Transport failures
// are assumed to be temporary.
func isTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, context.Canceled)
}
