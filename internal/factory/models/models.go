package models

import (
	"time"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// Entry records one provisioned creator in the factory index.
type Entry struct {
	Ordinal   int
	Creator   domain.Address
	Catalog   domain.Address
	Invoker   domain.Address
	CreatedAt time.Time
}

func NewEntry(creator, catalog, invoker domain.Address, now time.Time) (*Entry, error) {
	if creator.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator cannot be the zero address")
	}
	if catalog.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "catalog cannot be the zero address")
	}
	return &Entry{
		Creator:   creator,
		Catalog:   catalog,
		Invoker:   invoker,
		CreatedAt: now,
	}, nil
}

// Listing is an index entry with the creator's registry name resolved.
type Listing struct {
	Entry
	DisplayName string
}
