package store

import (
	"context"

	"verigate/internal/verification"
	"verigate/pkg/platform/sentinel"
)

// ErrNotFound is returned when no status row exists for an external user id.
var ErrNotFound = sentinel.ErrNotFound

// Store persists one current status row per external user id.
//
// Upsert applies last-writer-wins by observation time: a write older than the
// persisted row is dropped (reported as sentinel.ErrStale) so a replayed or
// late webhook can never clobber a fresher poll result. A terminal rejected
// row is only overwritten by a write that is itself terminal or verified.
type Store interface {
	Get(ctx context.Context, externalUserID string) (*verification.Record, error)
	Upsert(ctx context.Context, record verification.Record) error
}
