// Package store persists the factory's insertion-ordered creator index.
package store

import (
	"context"
	"sync"

	"provenance/internal/factory/models"
	"provenance/pkg/domain"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	entries   []models.Entry
	byCreator map[domain.Address]int
}

func NewInMemory() *InMemory {
	return &InMemory{byCreator: make(map[domain.Address]int)}
}

// Append assigns the next ordinal. ErrAlreadyExists if the creator is indexed.
func (s *InMemory) Append(_ context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCreator[e.Creator]; ok {
		return sentinel.ErrAlreadyExists
	}
	e.Ordinal = len(s.entries)
	s.entries = append(s.entries, *e)
	s.byCreator[e.Creator] = e.Ordinal
	return nil
}

func (s *InMemory) FindByCreator(_ context.Context, creator domain.Address) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byCreator[creator]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e := s.entries[i]
	return &e, nil
}

func (s *InMemory) List(_ context.Context, offset, pageSize int) (pagination.Page[models.Entry], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pagination.Slice(s.entries, offset, pageSize)
}
