package profile

import (
	"context"
	"sync"

	"verigate/pkg/platform/sentinel"
)

// Profile carries the identity fields used to prefill applicant creation.
type Profile struct {
	UserID    string
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

// Reader looks up a profile by the authenticated user id.
type Reader interface {
	Get(ctx context.Context, userID string) (*Profile, error)
}

// InMemoryStore is the development Reader; production deployments point this
// at the app's user store instead.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]Profile)}
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) Put(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}
