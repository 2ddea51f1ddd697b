package store

import (
	"context"
	"sync"

	"verigate/internal/verification"
	"verigate/pkg/platform/sentinel"
)

// InMemoryStore is the non-durable Store used in development and unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]verification.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]verification.Record)}
}

func (s *InMemoryStore) Get(_ context.Context, externalUserID string) (*verification.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[externalUserID]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record verification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[record.ExternalUserID]
	if ok {
		if record.ObservedAt.Before(existing.ObservedAt) {
			return sentinel.ErrStale
		}
		if pinned(existing.Result.Status, record.Result.Status) {
			return nil
		}
		if record.ApplicantID == "" {
			record.ApplicantID = existing.ApplicantID
		}
	}
	s.records[record.ExternalUserID] = record
	return nil
}

// pinned reports whether the existing terminal status blocks the incoming
// write. A terminal rejection only yields to another terminal outcome or to a
// provider reversal all the way to verified.
func pinned(existing, incoming verification.Status) bool {
	if existing != verification.StatusRejected {
		return false
	}
	return incoming != verification.StatusRejected && incoming != verification.StatusVerified
}
