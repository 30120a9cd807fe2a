package domain

import (
	"github.com/google/uuid"

	dErrors "grievance/pkg/domain-errors"
)

// ActorKind classifies who is acting on a complaint. The kind determines
// authorization scope and whether terminal complaints may still be edited.
type ActorKind string

const (
	ActorKindCitizen ActorKind = "citizen"
	ActorKindStaff   ActorKind = "staff"
	ActorKindAdmin   ActorKind = "admin"
)

// IsValid checks the kind is one of the supported enum values.
func (k ActorKind) IsValid() bool {
	switch k {
	case ActorKindCitizen, ActorKindStaff, ActorKindAdmin:
		return true
	}
	return false
}

// Actor is the caller identity the request layer hands to the lifecycle
// engine. The engine never derives identity from ambient state; every
// operation takes an Actor explicitly.
type Actor struct {
	Kind ActorKind
	ID   uuid.UUID
	// Authority is the government body a staff member belongs to. Empty for
	// citizens and admins.
	Authority string
}

// NewActor validates and constructs an Actor.
func NewActor(kind ActorKind, actorID uuid.UUID, authority string) (Actor, error) {
	if !kind.IsValid() {
		return Actor{}, dErrors.New(dErrors.CodeInvalidInput, "unknown actor kind")
	}
	if actorID == uuid.Nil {
		return Actor{}, dErrors.New(dErrors.CodeInvalidInput, "actor id is required")
	}
	if kind == ActorKindStaff && authority == "" {
		return Actor{}, dErrors.New(dErrors.CodeInvalidInput, "staff actor requires an authority")
	}
	return Actor{Kind: kind, ID: actorID, Authority: authority}, nil
}

// IsZero reports whether the actor is unset.
func (a Actor) IsZero() bool {
	return a.Kind == "" && a.ID == uuid.Nil
}

// Same reports whether two actors are the same principal. Authority is not
// part of identity; a staff member reassigned to another authority is still
// the same holder.
func (a Actor) Same(other Actor) bool {
	return a.Kind == other.Kind && a.ID == other.ID
}
