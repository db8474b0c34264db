package domain

import (
	"context"
	"slices"
	"time"
)

// Claims is the verified content of a session token.
type Claims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the identity attached to a request by the auth middleware.
// The zero value is the anonymous principal.
type Principal struct {
	Subject string
	Roles   []string
}

// Anonymous reports whether no identity was established.
func (p Principal) Anonymous() bool {
	return p.Subject == ""
}

func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

// HasAnyRole reports whether p holds at least one of roles.
func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// CanModify reports whether p may mutate a document owned by ownerID.
func (p Principal) CanModify(ownerID string) bool {
	if p.Anonymous() {
		return false
	}
	return p.Subject == ownerID || p.HasRole(RoleAdmin)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or the anonymous one.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
