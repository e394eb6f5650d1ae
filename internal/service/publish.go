package service

import (
	"context"
	"sync"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

type pendingKey struct{}

// pendingPublishes holds changes made inside an enclosing transaction
// until it commits.
type pendingPublishes struct {
	mu    sync.Mutex
	sends []func()
}

// holdPublishes returns a context under which publishChange queues instead
// of sending. release sends the queue in order and must only be called
// once the enclosing transaction has committed. When ctx already holds a
// queue, the outer holder owns it and release does nothing.
func holdPublishes(ctx context.Context) (context.Context, func()) {
	if _, ok := ctx.Value(pendingKey{}).(*pendingPublishes); ok {
		return ctx, func() {}
	}
	q := &pendingPublishes{}
	release := func() {
		q.mu.Lock()
		sends := q.sends
		q.sends = nil
		q.mu.Unlock()
		for _, send := range sends {
			send()
		}
	}
	return context.WithValue(ctx, pendingKey{}, q), release
}

func publishChange(ctx context.Context, p Publisher, userID string, change *models.ChangeEntry) {
	if p == nil || change == nil {
		return
	}
	if q, ok := ctx.Value(pendingKey{}).(*pendingPublishes); ok {
		q.mu.Lock()
		q.sends = append(q.sends, func() { p.Publish(userID, change) })
		q.mu.Unlock()
		return
	}
	p.Publish(userID, change)
}
