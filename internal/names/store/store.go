// Package store persists name bindings and creator→catalog links.
package store

import (
	"fmt"

	"provenance/pkg/platform/sentinel"
)

// Collisions distinguish which unique key a Create lost on. Both wrap
// sentinel.ErrAlreadyExists.
var (
	ErrNameTaken    = fmt.Errorf("name taken: %w", sentinel.ErrAlreadyExists)
	ErrAddressBound = fmt.Errorf("address already named: %w", sentinel.ErrAlreadyExists)
)
