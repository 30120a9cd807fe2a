package audit

import (
	"time"

	id "grievance/pkg/domain"
)

// Event is emitted from domain logic to capture key complaint lifecycle
// actions. Keep it transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp   time.Time      `json:"timestamp"`
	Action      Action         `json:"action"`
	ComplaintID id.ComplaintID `json:"complaint_id"`
	ActorKind   string         `json:"actor_kind,omitempty"`
	ActorID     string         `json:"actor_id,omitempty"`
	FromStatus  string         `json:"from_status,omitempty"`
	ToStatus    string         `json:"to_status,omitempty"`
	RequestID   string         `json:"request_id,omitempty"`
}

// Action names a lifecycle event.
type Action string

const (
	ActionComplaintCreated Action = "complaint_created"
	ActionComplaintUpdated Action = "complaint_updated"
	ActionStatusChanged    Action = "status_changed"
	ActionLockAcquired     Action = "lock_acquired"
	ActionLockReleased     Action = "lock_released"
)
