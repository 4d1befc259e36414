package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role values match what the deployed tokens carry.
type Role string

const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleDirecteur  Role = "DIRECTEUR"
	RoleGerant     Role = "GERANT"
	RoleVendeur    Role = "VENDEUR"
)

// Identity is the resolved bearer identity the core trusts. Superadmin
// identities carry a nil TenantID.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     Role
}

type identityCtxKey struct{}

// NewContext returns a context carrying the given identity.
func NewContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// FromContext extracts the identity from the context, if present.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(Identity)
	return identity, ok
}
