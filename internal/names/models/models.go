package models

import (
	"time"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/strings"
)

// NameRecord binds an address to a display name exactly once.
// FoldedName is the uniqueness key; Name keeps the caller's casing for display.
type NameRecord struct {
	Address    domain.Address
	Name       string
	FoldedName string
	CreatedAt  time.Time
}

// NewNameRecord checks the binding invariants and derives the folded form.
func NewNameRecord(address domain.Address, name string, now time.Time) (*NameRecord, error) {
	if address.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "address cannot be the zero address")
	}
	if strings.IsEmpty(name) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	return &NameRecord{
		Address:    address,
		Name:       name,
		FoldedName: FoldName(name),
		CreatedAt:  now,
	}, nil
}

// CatalogLink records the catalog provisioned for a creator. Write-once.
type CatalogLink struct {
	Creator   domain.Address
	Catalog   domain.Address
	CreatedAt time.Time
}

// FoldName is the uniqueness key for name.
func FoldName(name string) string {
	return strings.Fold(name)
}
