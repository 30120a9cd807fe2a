package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"grievance/internal/complaint/models"
	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
)

type HistoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *HistoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestHistoryStoreSuite(t *testing.T) {
	suite.Run(t, new(HistoryStoreSuite))
}

func (s *HistoryStoreSuite) newEntry(complaintID id.ComplaintID, status models.Status, createdAt time.Time) *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:          id.EntryID(uuid.New()),
		ComplaintID: complaintID,
		Author:      id.Actor{Kind: id.ActorKindCitizen, ID: uuid.New()},
		Title:       "title",
		Status:      status,
		CreatedAt:   createdAt,
	}
}

func (s *HistoryStoreSuite) TestAppendAssignsSequence() {
	complaintID := id.ComplaintID(uuid.New())
	now := time.Now()

	first := s.newEntry(complaintID, models.StatusNew, now)
	second := s.newEntry(complaintID, models.StatusInReview, now.Add(time.Minute))
	s.Require().NoError(s.store.Append(s.ctx, first))
	s.Require().NoError(s.store.Append(s.ctx, second))

	s.Less(first.Seq, second.Seq)
}

func (s *HistoryStoreSuite) TestLatestFor() {
	complaintID := id.ComplaintID(uuid.New())
	now := time.Now()

	s.Run("empty ledger returns ErrNotFound", func() {
		_, err := s.store.LatestFor(s.ctx, complaintID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns the entry with greatest created_at", func() {
		s.Require().NoError(s.store.Append(s.ctx, s.newEntry(complaintID, models.StatusNew, now)))
		s.Require().NoError(s.store.Append(s.ctx, s.newEntry(complaintID, models.StatusInReview, now.Add(time.Minute))))

		latest, err := s.store.LatestFor(s.ctx, complaintID)
		s.Require().NoError(err)
		s.Equal(models.StatusInReview, latest.Status)
	})

	s.Run("breaks timestamp ties by insertion order", func() {
		tied := id.ComplaintID(uuid.New())
		at := time.Now()
		s.Require().NoError(s.store.Append(s.ctx, s.newEntry(tied, models.StatusNew, at)))
		winner := s.newEntry(tied, models.StatusInReview, at)
		s.Require().NoError(s.store.Append(s.ctx, winner))

		latest, err := s.store.LatestFor(s.ctx, tied)
		s.Require().NoError(err)
		s.Equal(winner.ID, latest.ID)
	})
}

func (s *HistoryStoreSuite) TestAllForPreservesInsertionOrder() {
	complaintID := id.ComplaintID(uuid.New())
	now := time.Now()
	for i := range 4 {
		entry := s.newEntry(complaintID, models.StatusNew, now.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Append(s.ctx, entry))
	}

	entries, err := s.store.AllFor(s.ctx, complaintID)
	s.Require().NoError(err)
	s.Require().Len(entries, 4)
	for i := 1; i < len(entries); i++ {
		s.Less(entries[i-1].Seq, entries[i].Seq)
	}
}

func (s *HistoryStoreSuite) TestAllForReturnsCopy() {
	complaintID := id.ComplaintID(uuid.New())
	s.Require().NoError(s.store.Append(s.ctx, s.newEntry(complaintID, models.StatusNew, time.Now())))

	entries, err := s.store.AllFor(s.ctx, complaintID)
	s.Require().NoError(err)
	entries[0].Title = "mutated"

	again, err := s.store.AllFor(s.ctx, complaintID)
	s.Require().NoError(err)
	s.Equal("title", again[0].Title)
}

func (s *HistoryStoreSuite) TestLatestForMany() {
	now := time.Now()
	first := id.ComplaintID(uuid.New())
	second := id.ComplaintID(uuid.New())
	empty := id.ComplaintID(uuid.New())

	s.Require().NoError(s.store.Append(s.ctx, s.newEntry(first, models.StatusNew, now)))
	s.Require().NoError(s.store.Append(s.ctx, s.newEntry(first, models.StatusInReview, now.Add(time.Minute))))
	s.Require().NoError(s.store.Append(s.ctx, s.newEntry(second, models.StatusNew, now)))

	out, err := s.store.LatestForMany(s.ctx, []id.ComplaintID{first, second, empty})
	s.Require().NoError(err)
	s.Len(out, 2)
	s.Equal(models.StatusInReview, out[first].Status)
	s.Equal(models.StatusNew, out[second].Status)
	s.NotContains(out, empty)
}
