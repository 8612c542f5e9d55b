// Package store persists role grants.
package store

import (
	"context"
	"sync"

	"provenance/internal/access/models"
	"provenance/pkg/domain"
)

type grantKey struct {
	scope   models.Scope
	role    models.Role
	account domain.Address
}

// InMemory keeps grants in a map guarded by an RWMutex.
type InMemory struct {
	mu     sync.RWMutex
	grants map[grantKey]models.Grant
}

func NewInMemory() *InMemory {
	return &InMemory{grants: make(map[grantKey]models.Grant)}
}

// Grant stores g and reports whether it was newly added.
func (s *InMemory) Grant(_ context.Context, g models.Grant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{g.Scope, g.Role, g.Account}
	if _, ok := s.grants[key]; ok {
		return false, nil
	}
	s.grants[key] = g
	return true, nil
}

// Revoke removes a grant and reports whether one existed.
func (s *InMemory) Revoke(_ context.Context, scope models.Scope, role models.Role, account domain.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{scope, role, account}
	if _, ok := s.grants[key]; !ok {
		return false, nil
	}
	delete(s.grants, key)
	return true, nil
}

func (s *InMemory) Has(_ context.Context, scope models.Scope, role models.Role, account domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey{scope, role, account}]
	return ok, nil
}
