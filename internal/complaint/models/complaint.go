package models

import (
	"time"

	id "grievance/pkg/domain"
	dErrors "grievance/pkg/domain-errors"
)

// Complaint is the mutable header row of a complaint.
//
// Invariants:
//   - The header carries no status field; status is derived from the history
//     ledger, always.
//   - A complaint never exists with zero history entries: creation writes the
//     header and the NEW entry in one transaction.
//   - The lock fields (LockHolder, LockAcquiredAt) are the only header fields
//     mutated after creation.
type Complaint struct {
	ID        id.ComplaintID `json:"id"`
	CitizenID id.CitizenID   `json:"citizen_id"`
	Category  string         `json:"category"`
	// Authority is the government body this complaint is routed to. It is
	// also the scoping key for staff visibility.
	Authority string     `json:"authority"`
	Assignee  *id.UserID `json:"assignee,omitempty"`
	// LockHolder identifies the single actor currently permitted to append a
	// history entry. Zero when unlocked.
	LockHolder     id.Actor   `json:"-"`
	LockAcquiredAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Locked reports whether any actor currently holds the edit lock.
func (c *Complaint) Locked() bool {
	return !c.LockHolder.IsZero()
}

// LockedBy reports whether the given actor is the current lock holder.
func (c *Complaint) LockedBy(actor id.Actor) bool {
	return c.Locked() && c.LockHolder.Same(actor)
}

// NewComplaint validates and constructs a complaint header.
func NewComplaint(complaintID id.ComplaintID, citizenID id.CitizenID, category, authority string, now time.Time) (*Complaint, error) {
	if complaintID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "complaint id is required")
	}
	if citizenID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "complaint owner is required")
	}
	if authority == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "complaint must be routed to an authority")
	}
	return &Complaint{
		ID:        complaintID,
		CitizenID: citizenID,
		Category:  category,
		Authority: authority,
		CreatedAt: now,
	}, nil
}
