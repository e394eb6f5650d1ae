package logger

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	userIDKey
)

// WithRequestID stores requestID on ctx, generating one when empty.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithUserID is called by the auth middleware once a token is verified.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func contextFields(ctx context.Context) []Field {
	fields := make([]Field, 0, 2)
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, String("request_id", id))
	}
	if id := userIDFromContext(ctx); id != "" {
		fields = append(fields, String("user_id", id))
	}
	return fields
}

// Ctx returns the default logger tagged with the request and user ids
// carried by ctx.
func Ctx(ctx context.Context) Logger {
	return Default().WithContext(ctx)
}
