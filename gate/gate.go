// Package gate is the authorization checkpoint of the marketplace. Every
// protected operation is named by a Permission ("order:pay") and looked up in
// a declarative Table of rules (roles, ownership, active account), so handlers
// never compare role names inline.
package gate

import "context"

// Gate evaluates the rule table against principals resolved per request.
type Gate struct {
	resolver Resolver
	rules    Table
}

// New creates a gate over the given resolver and rule table.
func New(resolver Resolver, rules Table) *Gate {
	return &Gate{resolver: resolver, rules: rules}
}

// Principal resolves the user, returning ErrUnauthenticated for unknown users.
func (g *Gate) Principal(ctx context.Context, userID uint) (*Principal, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	p, err := g.resolver.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// Authorize checks, in order:
//  1. the user resolves to a principal
//  2. a rule exists for perm
//  3. the account is active when the rule demands it
//  4. the principal holds one of the rule's roles
//
// Ownership of rows is left to the caller: the Actor built from the returned
// principal carries the rule's owner scope.
func (g *Gate) Authorize(ctx context.Context, userID uint, perm Permission) (*Principal, error) {
	p, err := g.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	rule, ok := g.rules.Lookup(perm)
	if !ok {
		return nil, ErrNoPolicyDefined
	}
	if rule.Active && !p.Active {
		return nil, ErrInactiveAccount
	}
	if len(rule.Roles) > 0 && !p.HasAnyRole(rule.Roles...) {
		return nil, ErrForbidden
	}
	return p, nil
}

// Scope tells a service whether lookups for perm must be restricted to the
// principal's own rows. scoped is false for bypass roles and unowned rules.
func (g *Gate) Scope(p *Principal, perm Permission) (ownerID uint, scoped bool) {
	rule, ok := g.rules.Lookup(perm)
	if !ok || !rule.Owner || p.HasAnyRole(rule.Bypass...) {
		return 0, false
	}
	return p.UserID, true
}

// Actor builds the service-level view of p for perm.
func (g *Gate) Actor(p *Principal, perm Permission) Actor {
	_, scoped := g.Scope(p, perm)
	return Actor{UserID: p.UserID, Unrestricted: !scoped}
}
