package auth

import "inkwell/domain"

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// CanCreate reports whether actor may create a post. Any signed-in account
// may; the new post's owner is always the actor, never client input.
func CanCreate(actor *domain.Account) Decision {
	if actor == nil {
		return Deny
	}
	return Allow
}

// CanModify reports whether actor may update or delete a post owned by
// ownerID. Owners and admins only. Reads are never guarded.
func CanModify(actor *domain.Account, ownerID int64) Decision {
	if actor == nil {
		return Deny
	}
	if actor.ID == ownerID || actor.Admin {
		return Allow
	}
	return Deny
}
