package models

import (
	dErrors "grievance/pkg/domain-errors"
)

// Status enumerates the lifecycle states of a complaint. Status is never
// stored on the complaint header; it is always derived from the latest
// history entry.
type Status string

const (
	StatusNew          Status = "NEW"
	StatusInReview     Status = "IN_REVIEW"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusNeedMoreInfo Status = "NEED_MORE_INFO"
	StatusResolved     Status = "RESOLVED"
	StatusRejected     Status = "REJECTED"
	StatusCancelled    Status = "CANCELLED"
)

// IsValid checks the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusInReview, StatusInProgress, StatusNeedMoreInfo,
		StatusResolved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further status transition is permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// legalTransitions is the edge set of the status machine. A status maps to
// the set of statuses reachable in one step. Same-status "transitions" are
// always legal and not listed here.
var legalTransitions = map[Status][]Status{
	StatusNew:          {StatusInReview, StatusCancelled},
	StatusInReview:     {StatusInProgress, StatusRejected, StatusCancelled},
	StatusInProgress:   {StatusNeedMoreInfo, StatusResolved, StatusRejected},
	StatusNeedMoreInfo: {StatusInProgress, StatusCancelled},
}

// CanTransitionTo reports whether next is a legal successor of s.
// A no-op transition (s == next) is always legal so content-only edits can
// restate the current status.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ValidateTransition enforces the status machine on the write path.
// Terminal origins fail with invalid_state (the complaint is closed); any
// other missing edge fails with illegal_transition.
func ValidateTransition(from, to Status) error {
	if !to.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(to))
	}
	if from == to {
		return nil
	}
	if from.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, "complaint is closed with status "+string(from))
	}
	if !from.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeIllegalTransition,
			"cannot transition from "+string(from)+" to "+string(to))
	}
	return nil
}
