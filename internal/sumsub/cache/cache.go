package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"verigate/internal/verification"
	"verigate/pkg/platform/sentinel"
)

// ErrNotFound is returned on a cache miss.
var ErrNotFound = sentinel.ErrNotFound

// Snapshot is one cached provider fetch: the overall review plus step states
// taken at the same instant.
type Snapshot struct {
	Review    verification.ReviewState            `json:"review"`
	Steps     map[string]*verification.StepStatus `json:"steps"`
	FetchedAt time.Time                           `json:"fetched_at"`
}

// SnapshotCache is a time-bounded cache of provider review snapshots, keyed
// by applicant id. It replaces ad hoc module-level maps with an injected
// dependency carrying an explicit TTL and explicit invalidation.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func key(applicantID string) string {
	return "sumsub:snapshot:" + applicantID
}

// Find returns the cached snapshot or ErrNotFound after TTL expiry.
func (c *SnapshotCache) Find(ctx context.Context, applicantID string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, key(applicantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Save stores a snapshot under the configured TTL.
func (c *SnapshotCache) Save(ctx context.Context, applicantID string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key(applicantID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot immediately. Webhook processing calls this so
// the next poll observes fresh provider state.
func (c *SnapshotCache) Invalidate(ctx context.Context, applicantID string) error {
	if err := c.client.Del(ctx, key(applicantID)).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}
