package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"provenance/internal/names/models"
	"provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
)

type InMemoryNameStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryNameStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryNameStoreSuite))
}

func (s *InMemoryNameStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

var (
	alice = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	bob   = domain.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

func (s *InMemoryNameStoreSuite) record(addr domain.Address, name string) *models.NameRecord {
	rec, err := models.NewNameRecord(addr, name, time.Now())
	s.Require().NoError(err)
	return rec
}

func (s *InMemoryNameStoreSuite) TestCreateAndFind() {
	s.Require().NoError(s.store.Create(s.ctx, s.record(alice, "Mike")))

	byAddr, err := s.store.FindByAddress(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal("Mike", byAddr.Name)

	byName, err := s.store.FindByFoldedName(s.ctx, "mike")
	s.Require().NoError(err)
	s.Equal(alice, byName.Address)

	_, err = s.store.FindByAddress(s.ctx, bob)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryNameStoreSuite) TestCreateCollisions() {
	s.Require().NoError(s.store.Create(s.ctx, s.record(alice, "Mike")))

	s.Run("folded name already bound elsewhere", func() {
		err := s.store.Create(s.ctx, s.record(bob, "mIkE"))
		s.ErrorIs(err, ErrNameTaken)
		s.ErrorIs(err, sentinel.ErrAlreadyExists)
	})

	s.Run("address already named", func() {
		err := s.store.Create(s.ctx, s.record(alice, "Other"))
		s.ErrorIs(err, ErrAddressBound)
	})

	s.Run("failed creates leave no trace", func() {
		_, err := s.store.FindByFoldedName(s.ctx, "other")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByAddress(s.ctx, bob)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryNameStoreSuite) TestFindNamesOmitsUnbound() {
	s.Require().NoError(s.store.Create(s.ctx, s.record(alice, "Mike")))

	names, err := s.store.FindNames(s.ctx, []domain.Address{alice, bob})
	s.Require().NoError(err)
	s.Equal(map[domain.Address]string{alice: "Mike"}, names)
}

func (s *InMemoryNameStoreSuite) TestCatalogLinkIsWriteOnce() {
	catalog := domain.MustParseAddress("0x00000000000000000000000000000000000000ca")
	link := &models.CatalogLink{Creator: alice, Catalog: catalog, CreatedAt: time.Now()}

	s.Require().NoError(s.store.SetCatalog(s.ctx, link))
	s.ErrorIs(s.store.SetCatalog(s.ctx, link), sentinel.ErrAlreadyExists)

	found, err := s.store.FindCatalog(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(catalog, found.Catalog)

	_, err = s.store.FindCatalog(s.ctx, bob)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryNameStoreSuite) TestConcurrentCreateSameName() {
	const goroutines = 50
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	records := make([]*models.NameRecord, goroutines)
	for i := range records {
		records[i] = s.record(domain.DeriveAddress([]byte{byte(i)}), "Contended")
	}
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.Create(s.ctx, records[i])
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrNameTaken):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}
