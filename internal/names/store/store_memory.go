package store

import (
	"context"
	"sync"

	"provenance/internal/names/models"
	"provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

// InMemory keeps both directions of the binding in maps behind one RWMutex.
type InMemory struct {
	mu        sync.RWMutex
	byAddress map[domain.Address]*models.NameRecord
	byFolded  map[string]*models.NameRecord
	catalogs  map[domain.Address]*models.CatalogLink
}

func NewInMemory() *InMemory {
	return &InMemory{
		byAddress: make(map[domain.Address]*models.NameRecord),
		byFolded:  make(map[string]*models.NameRecord),
		catalogs:  make(map[domain.Address]*models.CatalogLink),
	}
}

func (s *InMemory) FindByAddress(_ context.Context, address domain.Address) (*models.NameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byAddress[address]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByFoldedName(_ context.Context, folded string) (*models.NameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.byFolded[folded]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindNames returns bound names for the given addresses. Unbound addresses are omitted.
func (s *InMemory) FindNames(_ context.Context, addresses []domain.Address) (map[domain.Address]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Address]string, len(addresses))
	for _, a := range addresses {
		if rec, ok := s.byAddress[a]; ok {
			out[a] = rec.Name
		}
	}
	return out, nil
}

// Create inserts rec only if neither its address nor its folded name is bound.
func (s *InMemory) Create(_ context.Context, rec *models.NameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byFolded[rec.FoldedName]; ok {
		return ErrNameTaken
	}
	if _, ok := s.byAddress[rec.Address]; ok {
		return ErrAddressBound
	}
	cp := *rec
	s.byAddress[rec.Address] = &cp
	s.byFolded[rec.FoldedName] = &cp
	return nil
}

func (s *InMemory) SetCatalog(_ context.Context, link *models.CatalogLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalogs[link.Creator]; ok {
		return sentinel.ErrAlreadyExists
	}
	cp := *link
	s.catalogs[link.Creator] = &cp
	return nil
}

func (s *InMemory) FindCatalog(_ context.Context, creator domain.Address) (*models.CatalogLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if link, ok := s.catalogs[creator]; ok {
		cp := *link
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}
