// Package lock implements the single-holder advisory lock that serializes
// complaint edits. The lock is two fields on the complaint header; this
// package owns the policy around them (terminal-state refusal, the
// one-lock-per-actor rule, holder-only release). The storage layer provides
// the atomic compare-and-set.
package lock

import (
	"context"
	"errors"
	"time"

	"grievance/internal/complaint/models"
	complaintstore "grievance/internal/complaint/store/complaint"
	id "grievance/pkg/domain"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/platform/sentinel"
)

// HeaderStore is the slice of the complaint store the manager needs.
type HeaderStore interface {
	FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	AcquireLock(ctx context.Context, complaintID id.ComplaintID, actor id.Actor, now time.Time) error
	ReleaseLock(ctx context.Context, complaintID id.ComplaintID, actor id.Actor) (bool, error)
	ReleaseLocksHeldBy(ctx context.Context, actor id.Actor, except id.ComplaintID) (int, error)
}

// Ledger is the slice of the history store the manager needs: the latest
// entry decides whether a complaint is terminal.
type Ledger interface {
	LatestFor(ctx context.Context, complaintID id.ComplaintID) (*models.HistoryEntry, error)
}

// Manager grants and revokes the edit lock on complaints.
type Manager struct {
	headers HeaderStore
	ledger  Ledger
}

func NewManager(headers HeaderStore, ledger Ledger) *Manager {
	return &Manager{headers: headers, ledger: ledger}
}

var _ HeaderStore = (*complaintstore.InMemory)(nil)
var _ HeaderStore = (*complaintstore.PostgresStore)(nil)

// Acquire grants the edit lock to the actor.
//
//   - not_found when the complaint does not exist
//   - invalid_state when the latest status is terminal and the actor is not
//     an admin (admins may lock closed complaints for corrective edits)
//   - lock_conflict when a different actor holds the lock
//
// Re-acquiring by the current holder succeeds and refreshes the acquired-at
// timestamp. On success, any other lock the actor holds elsewhere is
// released: an actor holds at most one lock system-wide, so abandoning one
// complaint to work another frees the first. A failed acquire changes
// nothing — the actor keeps whatever lock it already held.
func (m *Manager) Acquire(ctx context.Context, complaintID id.ComplaintID, actor id.Actor, now time.Time) error {
	latest, err := m.ledger.LatestFor(ctx, complaintID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load complaint status")
	}
	if latest.Status.IsTerminal() && actor.Kind != id.ActorKindAdmin {
		return dErrors.New(dErrors.CodeInvalidState, "complaint is closed")
	}

	if err := m.headers.AcquireLock(ctx, complaintID, actor, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "complaint not found")
		case errors.Is(err, sentinel.ErrLockHeld):
			return dErrors.New(dErrors.CodeLockConflict, "complaint is locked by another actor")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire lock")
		}
	}

	if _, err := m.headers.ReleaseLocksHeldBy(ctx, actor, complaintID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release previous locks")
	}
	return nil
}

// Release clears the lock if the actor holds it. Releasing a lock you don't
// hold is a safe no-op: the write path always attempts release after a
// successful update regardless of prior state.
func (m *Manager) Release(ctx context.Context, complaintID id.ComplaintID, actor id.Actor) error {
	if _, err := m.headers.ReleaseLock(ctx, complaintID, actor); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release lock")
	}
	return nil
}

// ReleaseAllFor releases every lock the actor holds, returning the count.
// Called on logout so a disconnected actor cannot strand a lock.
func (m *Manager) ReleaseAllFor(ctx context.Context, actor id.Actor) (int, error) {
	count, err := m.headers.ReleaseLocksHeldBy(ctx, actor, id.ComplaintID{})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to release locks")
	}
	return count, nil
}

// EnsureOwner guards a write: it fails unless the complaint is currently
// locked by the actor. Callers re-check this on a fresh read at write time,
// not only at lock time.
func (m *Manager) EnsureOwner(c *models.Complaint, actor id.Actor) error {
	if !c.LockedBy(actor) {
		return dErrors.New(dErrors.CodeLockConflict, "complaint is not locked by the caller")
	}
	return nil
}
