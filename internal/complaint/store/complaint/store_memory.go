package complaint

import (
	"context"
	"sort"
	"sync"
	"time"

	"grievance/internal/complaint/models"
	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
)

// InMemory keeps complaint headers in a map. Lock operations take the write
// mutex for their full duration so acquire is compare-and-set, never
// read-then-write.
type InMemory struct {
	mu         sync.RWMutex
	complaints map[id.ComplaintID]*models.Complaint
}

func NewInMemory() *InMemory {
	return &InMemory{complaints: make(map[id.ComplaintID]*models.Complaint)}
}

func (s *InMemory) Create(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.complaints[c.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) List(_ context.Context, filter Filter) ([]*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Complaint, 0)
	for _, c := range s.complaints {
		if filter.CitizenID != nil && c.CitizenID != *filter.CitizenID {
			continue
		}
		if filter.Authority != nil && c.Authority != *filter.Authority {
			continue
		}
		cp := *c
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*models.Complaint{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// AcquireLock grants the lock if the complaint is unlocked or already held by
// the same actor (idempotent re-lock refreshes the timestamp). Returns
// sentinel.ErrLockHeld when a different actor holds it.
func (s *InMemory) AcquireLock(_ context.Context, complaintID id.ComplaintID, actor id.Actor, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.complaints[complaintID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Locked() && !c.LockHolder.Same(actor) {
		return sentinel.ErrLockHeld
	}
	c.LockHolder = actor
	t := now
	c.LockAcquiredAt = &t
	return nil
}

// ReleaseLock clears the lock only when the caller is the current holder.
// Releasing a lock you don't hold is a safe no-op; the second return value
// reports whether a lock was actually released.
func (s *InMemory) ReleaseLock(_ context.Context, complaintID id.ComplaintID, actor id.Actor) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.complaints[complaintID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if !c.LockedBy(actor) {
		return false, nil
	}
	c.LockHolder = id.Actor{}
	c.LockAcquiredAt = nil
	return true, nil
}

// ReleaseLocksHeldBy releases every lock the actor holds, except the given
// complaint when except is non-nil. Returns the number of locks released.
func (s *InMemory) ReleaseLocksHeldBy(_ context.Context, actor id.Actor, except id.ComplaintID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := 0
	for _, c := range s.complaints {
		if c.ID == except {
			continue
		}
		if c.LockedBy(actor) {
			c.LockHolder = id.Actor{}
			c.LockAcquiredAt = nil
			released++
		}
	}
	return released, nil
}
