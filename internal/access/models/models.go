package models

import (
	"time"

	"provenance/pkg/domain"
)

// Role names a grantable capability. Its on-the-wire id is keccak256(name).
type Role string

const (
	// AuthRole is the authorized-writer capability.
	AuthRole Role = "AUTH_ROLE"
	// ProvisionerRole lets a caller provision catalogs for other creators.
	ProvisionerRole Role = "PROVISIONER_ROLE"
)

// ID returns the keccak256 role identifier.
func (r Role) ID() [32]byte {
	return domain.Keccak256([]byte(r))
}

// Scope names the component a grant applies to.
type Scope string

const (
	ScopeNames   Scope = "names"
	ScopeFactory Scope = "factory"
)

// CatalogScope scopes grants to a single catalog.
func CatalogScope(catalog domain.Address) Scope {
	return Scope("catalog:" + catalog.String())
}

// Grant records that Account holds Role within Scope.
type Grant struct {
	Scope     Scope
	Role      Role
	Account   domain.Address
	GrantedBy domain.Address
	GrantedAt time.Time
}
