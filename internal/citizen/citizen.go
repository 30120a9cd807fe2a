// Package citizen is the citizen-lookup collaborator. The lifecycle engine
// needs exactly two things from it: resolve a citizen's push token after a
// status change, and clear that token when the dispatcher reports it invalid.
package citizen

import (
	"context"
	"time"

	id "grievance/pkg/domain"
)

// Citizen is the account record a complaint belongs to.
type Citizen struct {
	ID        id.CitizenID `json:"id"`
	FullName  string       `json:"full_name"`
	Email     string       `json:"email"`
	PushToken *string      `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
}

//go:generate mockgen -source=citizen.go -destination=mocks/mocks.go -package=mocks

// Store exposes the narrow lookup contract the lifecycle engine consumes.
type Store interface {
	FindOne(ctx context.Context, citizenID id.CitizenID) (*Citizen, error)
	SetPushToken(ctx context.Context, citizenID id.CitizenID, token *string) error
}
