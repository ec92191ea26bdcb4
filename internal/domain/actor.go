package domain

import "github.com/google/uuid"

// Actor is the authenticated user on whose behalf an operation runs.
// It is threaded explicitly through services and policy checks.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorFor builds an Actor from a stored user.
func ActorFor(u *User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
