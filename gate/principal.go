package gate

import (
	"context"
	"slices"
)

// Principal is an authenticated subject: a stable user id, its role
// memberships and whether its account is active.
type Principal struct {
	UserID uint
	Roles  []string
	Active bool
}

// HasRole reports membership of role.
func (p *Principal) HasRole(role string) bool {
	return p != nil && slices.Contains(p.Roles, role)
}

// HasAnyRole reports membership of at least one of roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// Resolver resolves a user id to its principal.
// A nil principal with a nil error means the user does not exist.
type Resolver interface {
	Resolve(ctx context.Context, userID uint) (*Principal, error)
}

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver struct {
	principals map[uint]*Principal
}

// NewStaticResolver creates an empty resolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{principals: make(map[uint]*Principal)}
}

// Set registers a principal under its user id.
func (r *StaticResolver) Set(p *Principal) {
	r.principals[p.UserID] = p
}

// Resolve returns the principal for the given user.
func (r *StaticResolver) Resolve(_ context.Context, userID uint) (*Principal, error) {
	if p, ok := r.principals[userID]; ok {
		return p, nil
	}
	return nil, nil
}

// Actor is what a service needs to know about the caller of a use case.
type Actor struct {
	UserID uint
	// Unrestricted lifts ownership checks, for bypass roles.
	Unrestricted bool
}

// Owns reports whether the actor may act on o as its owner.
func (a Actor) Owns(o Ownable) bool {
	return a.Unrestricted || (a.UserID != 0 && o.GetUserID() == a.UserID)
}
