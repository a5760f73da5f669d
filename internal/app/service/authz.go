package service

import "geodir/internal/domain/model"

// Actor is the authenticated identity attached to a request.
type Actor struct {
	ID   string
	Role string
}

// Decision is an explicit authorization outcome. Denials carry the reason so
// handlers never re-derive it from role strings.
type Decision struct {
	Permitted bool
	Reason    string
}

// AuthorizeOwnerOrAdmin permits the resource owner and any admin. It is a pure
// function of the actor and the owner reference, no store round trip.
func AuthorizeOwnerOrAdmin(actor Actor, resourceOwnerID string) Decision {
	if actor.ID != "" && actor.ID == resourceOwnerID {
		return Decision{Permitted: true}
	}
	if actor.Role == model.RoleAdmin {
		return Decision{Permitted: true}
	}
	return Decision{Reason: "not the resource owner and not an admin"}
}
