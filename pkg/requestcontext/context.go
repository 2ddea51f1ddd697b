package requestcontext

import (
	"context"
	"time"
)

type contextKeyNow struct{}

// WithNow pins the request-scoped clock. Middleware sets this once at the top
// of the chain so every layer below observes the same instant.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, contextKeyNow{}, now)
}

// Now returns the request-scoped time, falling back to the wall clock when no
// middleware pinned one (unit tests, background workers).
func Now(ctx context.Context) time.Time {
	if now, ok := ctx.Value(contextKeyNow{}).(time.Time); ok {
		return now
	}
	return time.Now()
}
