// Package store persists catalogs with their series, assets and ordered indexes.
package store

import (
	"context"
	"sync"

	"provenance/internal/catalog/models"
	"provenance/pkg/domain"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/sentinel"
)

// catalogState pairs O(1) lookup maps with insertion-ordered indexes.
type catalogState struct {
	catalog     *models.Catalog
	series      map[domain.SeriesID]*models.Series
	seriesOrder []domain.SeriesID
	assets      map[domain.AssetID]*models.Asset
	assetOrder  []domain.AssetID
	bySeries    map[domain.SeriesID][]domain.AssetID
}

// InMemory keeps every catalog behind one RWMutex so listings never observe a torn write.
type InMemory struct {
	mu       sync.RWMutex
	catalogs map[domain.Address]*catalogState
}

func NewInMemory() *InMemory {
	return &InMemory{catalogs: make(map[domain.Address]*catalogState)}
}

func (s *InMemory) CreateCatalog(_ context.Context, c *models.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalogs[c.Address]; ok {
		return sentinel.ErrAlreadyExists
	}
	cp := *c
	s.catalogs[c.Address] = &catalogState{
		catalog:  &cp,
		series:   make(map[domain.SeriesID]*models.Series),
		assets:   make(map[domain.AssetID]*models.Asset),
		bySeries: make(map[domain.SeriesID][]domain.AssetID),
	}
	return nil
}

func (s *InMemory) FindCatalog(_ context.Context, address domain.Address) (*models.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.catalogs[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *st.catalog
	return &cp, nil
}

// CreateSeries appends to the series index. ErrAlreadyExists on a duplicate id.
func (s *InMemory) CreateSeries(_ context.Context, series *models.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.catalogs[series.Catalog]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := st.series[series.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	cp := *series
	st.series[series.ID] = &cp
	st.seriesOrder = append(st.seriesOrder, series.ID)
	st.catalog.SeriesCount++
	return nil
}

func (s *InMemory) FindSeries(_ context.Context, catalog domain.Address, id domain.SeriesID) (*models.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.catalogs[catalog]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	series, ok := st.series[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *series
	return &cp, nil
}

// UpdateSeries applies fn to a copy and stores it only if fn succeeds.
func (s *InMemory) UpdateSeries(_ context.Context, catalog domain.Address, id domain.SeriesID, fn func(*models.Series) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.catalogs[catalog]
	if !ok {
		return sentinel.ErrNotFound
	}
	series, ok := st.series[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cp := *series
	if err := fn(&cp); err != nil {
		return err
	}
	st.series[id] = &cp
	return nil
}

func (s *InMemory) ListSeries(_ context.Context, catalog domain.Address, offset, pageSize int) (pagination.Page[domain.SeriesID], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.catalogs[catalog]
	if !ok {
		return pagination.Page[domain.SeriesID]{}, sentinel.ErrNotFound
	}
	return pagination.Slice(st.seriesOrder, offset, pageSize)
}

// CreateAsset appends to the global and per-series indexes and bumps the
// catalog's asset count. The series need not exist.
func (s *InMemory) CreateAsset(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.catalogs[asset.Catalog]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := st.assets[asset.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	cp := cloneAsset(asset)
	st.assets[asset.ID] = cp
	st.assetOrder = append(st.assetOrder, asset.ID)
	st.bySeries[asset.SeriesID] = append(st.bySeries[asset.SeriesID], asset.ID)
	st.catalog.AssetCount++
	return nil
}

func (s *InMemory) FindAsset(_ context.Context, catalog domain.Address, id domain.AssetID) (*models.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.catalogs[catalog]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	asset, ok := st.assets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAsset(asset), nil
}

// UpdateAsset applies fn to a copy and stores it only if fn succeeds.
func (s *InMemory) UpdateAsset(_ context.Context, catalog domain.Address, id domain.AssetID, fn func(*models.Asset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.catalogs[catalog]
	if !ok {
		return sentinel.ErrNotFound
	}
	asset, ok := st.assets[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cp := cloneAsset(asset)
	if err := fn(cp); err != nil {
		return err
	}
	st.assets[id] = cp
	return nil
}

func (s *InMemory) ListAssetsBySeries(_ context.Context, catalog domain.Address, seriesID domain.SeriesID, offset, pageSize int) (pagination.Page[domain.AssetID], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.catalogs[catalog]
	if !ok {
		return pagination.Page[domain.AssetID]{}, sentinel.ErrNotFound
	}
	return pagination.Slice(st.bySeries[seriesID], offset, pageSize)
}

func cloneAsset(a *models.Asset) *models.Asset {
	cp := *a
	cp.Tags = append([]domain.Tag(nil), a.Tags...)
	return &cp
}
