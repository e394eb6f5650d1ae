package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "service" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			_, _ = w.Write([]byte(`{"id":"user-1","email":"a@example.com"}`))
		case "Bearer empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "service")
	ctx := context.Background()

	user, err := c.VerifyToken(ctx, "good")
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if user.ID != "user-1" || user.Email != "a@example.com" {
		t.Errorf("user = %+v", user)
	}

	if _, err := c.VerifyToken(ctx, "bad"); err == nil {
		t.Error("VerifyToken(bad) error = nil")
	}
	if _, err := c.VerifyToken(ctx, "empty"); !errors.Is(err, ErrNoUser) {
		t.Errorf("VerifyToken(empty) error = %v, want ErrNoUser", err)
	}
}
