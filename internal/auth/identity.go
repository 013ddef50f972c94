package auth

import (
	"context"
	"time"

	"loan-portal/internal/domain"
)

// Identity is the verified caller attached to a request after authentication.
type Identity struct {
	AccountID int64
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// IdentityFromClaims projects verified claims into an Identity.
func IdentityFromClaims(c *Claims) Identity {
	id := Identity{
		AccountID: c.AccountID,
		Role:      c.Role,
		TokenID:   c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// HasRole reports whether the identity's role is one of roles. Unknown roles never match.
func (i Identity) HasRole(roles ...domain.Role) bool {
	if !i.Role.Valid() {
		return false
	}
	for _, r := range roles {
		if r == i.Role {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
