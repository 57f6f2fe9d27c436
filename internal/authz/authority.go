package authz

import (
	"fmt"

	"VaultCore/internal/asset"
	"VaultCore/internal/vaulterr"
)

// Role is a named capability set.
type Role uint8

const (
	// RoleAdmin may grant and revoke any role, including its own, and
	// may mutate the adapter registry.
	RoleAdmin Role = iota
	// RoleTreasury may withdraw custodied funds to external recipients.
	RoleTreasury
	// RoleExecutor may invoke adapter operations and request approvals.
	RoleExecutor
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTreasury:
		return "treasury"
	case RoleExecutor:
		return "executor"
	default:
		return "unknown"
	}
}

// Authority is the explicit policy map from principal to role set.
// Every privileged operation queries it synchronously before mutating
// state — there is no caching and no revocation delay.
type Authority struct {
	grants map[asset.Address]map[Role]bool
}

// New creates an authority with the initializing principal holding all
// three roles atomically.
func New(admin asset.Address) (*Authority, error) {
	if admin.IsZero() {
		return nil, fmt.Errorf("initial admin: %w", vaulterr.ErrInvalidArgument)
	}
	a := &Authority{grants: make(map[asset.Address]map[Role]bool)}
	a.grants[admin] = map[Role]bool{
		RoleAdmin:    true,
		RoleTreasury: true,
		RoleExecutor: true,
	}
	return a, nil
}

// Has reports whether the principal holds the role.
func (a *Authority) Has(principal asset.Address, r Role) bool {
	return a.grants[principal][r]
}

// Require fails with ErrUnauthorized unless the principal holds the role.
func (a *Authority) Require(principal asset.Address, r Role) error {
	if !a.Has(principal, r) {
		return fmt.Errorf("%s requires role %s: %w", principal, r, vaulterr.ErrUnauthorized)
	}
	return nil
}

// Grant gives the principal a role. Caller must hold RoleAdmin.
func (a *Authority) Grant(caller, principal asset.Address, r Role) error {
	if err := a.Require(caller, RoleAdmin); err != nil {
		return err
	}
	if principal.IsZero() {
		return fmt.Errorf("grant %s: %w", r, vaulterr.ErrInvalidArgument)
	}
	if a.grants[principal] == nil {
		a.grants[principal] = make(map[Role]bool)
	}
	a.grants[principal][r] = true
	return nil
}

// Revoke removes a role from the principal. Caller must hold RoleAdmin.
// Revoking a role the principal does not hold is a no-op.
func (a *Authority) Revoke(caller, principal asset.Address, r Role) error {
	if err := a.Require(caller, RoleAdmin); err != nil {
		return err
	}
	if set := a.grants[principal]; set != nil {
		delete(set, r)
		if len(set) == 0 {
			delete(a.grants, principal)
		}
	}
	return nil
}
