// Package permissions holds the pure access-control decision logic.
// Decisions never touch storage: callers pass in whatever identity and
// ownership facts they already have.
package permissions

import (
	"reviewhub/internal/http-api/models"
)

// Verb classifies an operation by whether it mutates state.
type Verb int

const (
	VerbRead Verb = iota
	VerbWrite
)

// Resource classifies what is being acted on.
type Resource int

const (
	// ResourceCatalog covers categories, genres and titles
	ResourceCatalog Resource = iota
	// ResourceAuthored covers reviews and comments
	ResourceAuthored
	// ResourceProfile covers a user's own /users/me record
	ResourceProfile
	// ResourceUserDirectory covers the admin view of all users
	ResourceUserDirectory
)

// Caller describes the requesting identity. A zero Caller is anonymous.
type Caller struct {
	ID            string
	Role          string
	Authenticated bool
}

// Decision is an allow/deny verdict with a human-readable reason on deny.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Policy fixes the role model at construction time instead of reading
// package globals.
type Policy struct {
	ReservedUsername string
	ElevatedRoles    []string
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		ReservedUsername: "me",
		ElevatedRoles:    []string{models.RoleModerator, models.RoleAdmin},
	}
}

// Elevated reports whether the role bypasses ownership checks.
func (p Policy) Elevated(role string) bool {
	for _, r := range p.ElevatedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Decide evaluates the access table for one request. ownerID is the
// author/subject of the loaded resource, or empty when the check runs
// before any resource is loaded (permission to attempt the action).
// Elevated status always wins over ownership.
func (p Policy) Decide(c Caller, verb Verb, res Resource, ownerID string) Decision {
	switch res {
	case ResourceCatalog:
		if verb == VerbRead {
			return allow()
		}
		if !c.Authenticated {
			return deny("authentication required")
		}
		if !p.Elevated(c.Role) {
			return deny("admin or moderator role required")
		}
		return allow()

	case ResourceAuthored:
		if verb == VerbRead {
			return allow()
		}
		if !c.Authenticated {
			return deny("authentication required")
		}
		if p.Elevated(c.Role) {
			return allow()
		}
		if ownerID == "" || ownerID == c.ID {
			return allow()
		}
		return deny("available to the author only")

	case ResourceProfile:
		if !c.Authenticated {
			return deny("authentication required")
		}
		if ownerID == "" || ownerID == c.ID {
			return allow()
		}
		return deny("available to the owner only")

	case ResourceUserDirectory:
		if !c.Authenticated {
			return deny("authentication required")
		}
		if !p.Elevated(c.Role) {
			return deny("admin or moderator role required")
		}
		return allow()
	}

	return deny("unknown resource")
}
