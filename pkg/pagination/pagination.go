// Package pagination implements the offset/page-size window shared by every
// ordered listing (series, assets by series, provisioned catalogs).
//
// A Page always carries PageSize slots. Slots past Count hold the zero value,
// so readers must consult Count before trusting any slot, including slot 0.
package pagination

import (
	dErrors "provenance/pkg/domain-errors"
)

// MaxPageSize bounds a single listing call.
const MaxPageSize = 100

// Page is a window over an insertion-ordered index.
type Page[T any] struct {
	Items      []T
	Count      int
	TotalCount int
}

// Filled returns only the meaningful prefix of Items.
func (p Page[T]) Filled() []T {
	return p.Items[:p.Count]
}

// Validate rejects page sizes outside [1, MaxPageSize] and negative offsets.
// It does not depend on the collection, so an empty index still rejects 105.
func Validate(offset, pageSize int) error {
	if pageSize < 1 || pageSize > MaxPageSize {
		return dErrors.New(dErrors.CodeValidation, "invalid pagesize")
	}
	if offset < 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid offset")
	}
	return nil
}

// Count is min(pageSize, max(0, total-offset)).
func Count(offset, pageSize, total int) int {
	if offset >= total {
		return 0
	}
	return min(pageSize, total-offset)
}

// Slice cuts a page out of a fully materialized index.
func Slice[T any](index []T, offset, pageSize int) (Page[T], error) {
	if err := Validate(offset, pageSize); err != nil {
		return Page[T]{}, err
	}
	total := len(index)
	n := Count(offset, pageSize, total)

	items := make([]T, pageSize)
	if n > 0 {
		copy(items, index[offset:offset+n])
	}
	return Page[T]{Items: items, Count: n, TotalCount: total}, nil
}

// FromWindow wraps rows a store already limited to the window. Extra rows
// beyond pageSize are ignored.
func FromWindow[T any](rows []T, pageSize, total int) Page[T] {
	items := make([]T, pageSize)
	n := copy(items, rows)
	return Page[T]{Items: items, Count: n, TotalCount: total}
}
