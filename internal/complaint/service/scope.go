package service

import (
	"grievance/internal/complaint/models"
	complaintstore "grievance/internal/complaint/store/complaint"
	id "grievance/pkg/domain"
)

// ActorScope is the per-kind authorization policy: who can see which
// complaints, who can file new ones, and who may touch closed ones. One
// Service instance is built per scope and mounted under that actor's routes,
// so the lifecycle logic exists exactly once.
type ActorScope struct {
	Kind id.ActorKind

	// MayCreate permits filing new complaints. Only citizens file.
	MayCreate bool

	// MayEditTerminal permits content edits on closed complaints. Status
	// changes out of a terminal state are refused regardless.
	MayEditTerminal bool
}

func CitizenScope() ActorScope {
	return ActorScope{Kind: id.ActorKindCitizen, MayCreate: true}
}

func StaffScope() ActorScope {
	return ActorScope{Kind: id.ActorKindStaff}
}

func AdminScope() ActorScope {
	return ActorScope{Kind: id.ActorKindAdmin, MayEditTerminal: true}
}

// ListFilter narrows a listing to what the actor may see: citizens their own
// complaints, staff their authority's, admins everything.
func (sc ActorScope) ListFilter(actor id.Actor, limit, offset int) complaintstore.Filter {
	filter := complaintstore.Filter{Limit: limit, Offset: offset}
	switch sc.Kind {
	case id.ActorKindCitizen:
		citizenID := id.CitizenID(actor.ID)
		filter.CitizenID = &citizenID
	case id.ActorKindStaff:
		authority := actor.Authority
		filter.Authority = &authority
	}
	return filter
}

// InScope reports whether the actor is allowed to see the complaint. Callers
// surface an out-of-scope complaint as not-found so unauthorized probing
// cannot confirm existence.
func (sc ActorScope) InScope(actor id.Actor, c *models.Complaint) bool {
	switch sc.Kind {
	case id.ActorKindCitizen:
		return c.CitizenID == id.CitizenID(actor.ID)
	case id.ActorKindStaff:
		return c.Authority == actor.Authority
	case id.ActorKindAdmin:
		return true
	}
	return false
}
