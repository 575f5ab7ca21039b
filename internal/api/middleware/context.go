package middleware

import (
	"context"

	"github.com/luocfprime/labtasker/internal/model"
)

type contextKey string

const queueContextKey contextKey = "queue"

// WithQueue stashes the authenticated queue on the request context.
func WithQueue(ctx context.Context, q *model.Queue) context.Context {
	return context.WithValue(ctx, queueContextKey, q)
}

// QueueFromContext retrieves the queue authenticated by BasicAuth, or
// nil if called outside that middleware's scope.
func QueueFromContext(ctx context.Context) *model.Queue {
	q, _ := ctx.Value(queueContextKey).(*model.Queue)
	return q
}
