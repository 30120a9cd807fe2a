// Package complaint persists complaint headers and owns the atomic lock
// primitives on them. All domain logic (scope checks, transition rules, the
// one-lock-per-actor policy) lives above in the lock manager and service.
package complaint

import (
	id "grievance/pkg/domain"
)

// Filter narrows a complaint listing. Nil fields match everything.
type Filter struct {
	CitizenID *id.CitizenID
	Authority *string
	Limit     int
	Offset    int
}
