// Package supabase verifies user access tokens against a Supabase project.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoUser is returned when the auth endpoint accepts the token but names
// no user.
var ErrNoUser = errors.New("supabase: token resolved to no user")

type Client struct {
	URL        string
	ServiceKey string
	HTTPClient *http.Client
}

func NewClient(url, serviceKey string) *Client {
	return &Client{
		URL:        strings.TrimRight(url, "/"),
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// User holds the fields of the auth user the API reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyToken asks GET /auth/v1/user who token belongs to.
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("supabase: verify token: status %d: %s", resp.StatusCode, snippet)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("supabase: decode user: %w", err)
	}
	if user.ID == "" {
		return nil, ErrNoUser
	}
	return &user, nil
}
