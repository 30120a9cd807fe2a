//go:build integration

package complaint_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"grievance/internal/complaint/models"
	complaintstore "grievance/internal/complaint/store/complaint"
	id "grievance/pkg/domain"
	"grievance/pkg/platform/sentinel"
	"grievance/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *complaintstore.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = complaintstore.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(s.ctx))
}

func (s *PostgresStoreSuite) newComplaint(authority string) *models.Complaint {
	c, err := models.NewComplaint(
		id.ComplaintID(uuid.New()), id.CitizenID(uuid.New()), "roads", authority, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *PostgresStoreSuite) staff() id.Actor {
	return id.Actor{Kind: id.ActorKindStaff, ID: uuid.New(), Authority: "public-works"}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	c := s.newComplaint("public-works")

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.CitizenID, found.CitizenID)
	s.Equal(c.Authority, found.Authority)
	s.False(found.Locked())

	_, err = s.store.FindByID(s.ctx, id.ComplaintID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFiltering() {
	citizen := s.newComplaint("public-works").CitizenID
	s.newComplaint("public-works")
	s.newComplaint("sanitation")

	got, err := s.store.List(s.ctx, complaintstore.Filter{CitizenID: &citizen})
	s.Require().NoError(err)
	s.Len(got, 1)

	authority := "public-works"
	got, err = s.store.List(s.ctx, complaintstore.Filter{Authority: &authority})
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.store.List(s.ctx, complaintstore.Filter{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *PostgresStoreSuite) TestAcquireLock() {
	s.Run("grants when unlocked and refuses a second actor", func() {
		c := s.newComplaint("public-works")
		holder := s.staff()

		s.Require().NoError(s.store.AcquireLock(s.ctx, c.ID, holder, time.Now().UTC()))

		err := s.store.AcquireLock(s.ctx, c.ID, s.staff(), time.Now().UTC())
		s.Require().ErrorIs(err, sentinel.ErrLockHeld)

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.True(found.LockedBy(holder))
	})

	s.Run("re-lock by the holder succeeds", func() {
		c := s.newComplaint("public-works")
		actor := s.staff()
		s.Require().NoError(s.store.AcquireLock(s.ctx, c.ID, actor, time.Now().UTC()))
		s.Require().NoError(s.store.AcquireLock(s.ctx, c.ID, actor, time.Now().UTC()))
	})

	s.Run("unknown complaint is ErrNotFound", func() {
		err := s.store.AcquireLock(s.ctx, id.ComplaintID(uuid.New()), s.staff(), time.Now().UTC())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentLockAcquisition verifies the conditional UPDATE admits exactly
// one winner under real database concurrency.
func (s *PostgresStoreSuite) TestConcurrentLockAcquisition() {
	c := s.newComplaint("public-works")

	const contenders = 32
	var wg sync.WaitGroup
	var wins atomic.Int32

	for range contenders {
		actor := s.staff()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.AcquireLock(s.ctx, c.ID, actor, time.Now().UTC()); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *PostgresStoreSuite) TestReleaseLock() {
	c := s.newComplaint("public-works")
	holder := s.staff()
	s.Require().NoError(s.store.AcquireLock(s.ctx, c.ID, holder, time.Now().UTC()))

	released, err := s.store.ReleaseLock(s.ctx, c.ID, s.staff())
	s.Require().NoError(err)
	s.False(released)

	released, err = s.store.ReleaseLock(s.ctx, c.ID, holder)
	s.Require().NoError(err)
	s.True(released)

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.False(found.Locked())
	s.Nil(found.LockAcquiredAt)
}

func (s *PostgresStoreSuite) TestReleaseLocksHeldBy() {
	actor := s.staff()
	kept := s.newComplaint("public-works")
	for range 2 {
		c := s.newComplaint("public-works")
		s.Require().NoError(s.store.AcquireLock(s.ctx, c.ID, actor, time.Now().UTC()))
	}
	s.Require().NoError(s.store.AcquireLock(s.ctx, kept.ID, actor, time.Now().UTC()))

	count, err := s.store.ReleaseLocksHeldBy(s.ctx, actor, kept.ID)
	s.Require().NoError(err)
	s.Equal(2, count)

	found, err := s.store.FindByID(s.ctx, kept.ID)
	s.Require().NoError(err)
	s.True(found.LockedBy(actor))
}
