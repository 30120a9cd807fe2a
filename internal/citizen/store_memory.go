package citizen

import (
	"context"
	"sync"

	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	citizens map[id.CitizenID]*Citizen
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{citizens: make(map[id.CitizenID]*Citizen)}
}

func (s *InMemoryStore) Save(_ context.Context, c *Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.citizens[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindOne(_ context.Context, citizenID id.CitizenID) (*Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.citizens[citizenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) SetPushToken(_ context.Context, citizenID id.CitizenID, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.citizens[citizenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.PushToken = token
	return nil
}
