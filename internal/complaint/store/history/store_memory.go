// Package history is the append-only ledger of complaint snapshots. It knows
// nothing about actors, authorization, or transitions; it appends and reads.
package history

import (
	"context"
	"sync"

	"grievance/internal/complaint/models"
	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
)

// InMemory keeps ledger entries per complaint, in insertion order. A global
// sequence counter provides the CreatedAt tie-break.
type InMemory struct {
	mu      sync.RWMutex
	entries map[id.ComplaintID][]models.HistoryEntry
	seq     int64
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[id.ComplaintID][]models.HistoryEntry)}
}

// Append records one immutable snapshot. The store assigns the insertion
// sequence; prior entries are never touched.
func (s *InMemory) Append(_ context.Context, entry *models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	entry.Seq = s.seq
	s.entries[entry.ComplaintID] = append(s.entries[entry.ComplaintID], *entry)
	return nil
}

// LatestFor returns the current entry: greatest CreatedAt, ties broken by
// insertion sequence.
func (s *InMemory) LatestFor(_ context.Context, complaintID id.ComplaintID) (*models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	current, ok := models.CurrentOf(s.entries[complaintID])
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &current, nil
}

// AllFor returns the full audit trail, oldest first.
func (s *InMemory) AllFor(_ context.Context, complaintID id.ComplaintID) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.HistoryEntry{}, s.entries[complaintID]...), nil
}

// LatestForMany returns the current entry per complaint for listing views.
// Complaints with no entries are absent from the result.
func (s *InMemory) LatestForMany(_ context.Context, complaintIDs []id.ComplaintID) (map[id.ComplaintID]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.ComplaintID]models.HistoryEntry, len(complaintIDs))
	for _, cid := range complaintIDs {
		if current, ok := models.CurrentOf(s.entries[cid]); ok {
			out[cid] = current
		}
	}
	return out, nil
}
