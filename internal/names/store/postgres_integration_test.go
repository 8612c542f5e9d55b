//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"provenance/internal/names/models"
	"provenance/internal/names/store"
	"provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
	"provenance/pkg/testutil/containers"
)

type PostgresNameStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresNameStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresNameStoreSuite))
}

func (s *PostgresNameStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresNameStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "creator_catalog_links", "creator_names"))
}

func newRecord(s *PostgresNameStoreSuite, addr domain.Address, name string) *models.NameRecord {
	rec, err := models.NewNameRecord(addr, name, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return rec
}

func (s *PostgresNameStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	alice := domain.DeriveAddress([]byte("alice"))
	s.Require().NoError(s.store.Create(ctx, newRecord(s, alice, "Mike")))

	byName, err := s.store.FindByFoldedName(ctx, "mike")
	s.Require().NoError(err)
	s.Equal(alice, byName.Address)
	s.Equal("Mike", byName.Name)

	s.ErrorIs(s.store.Create(ctx, newRecord(s, domain.DeriveAddress([]byte("bob")), "MIKE")), store.ErrNameTaken)
	s.ErrorIs(s.store.Create(ctx, newRecord(s, alice, "Other")), store.ErrAddressBound)
}

func (s *PostgresNameStoreSuite) TestFindNamesBatch() {
	ctx := context.Background()
	alice := domain.DeriveAddress([]byte("alice"))
	bob := domain.DeriveAddress([]byte("bob"))
	carol := domain.DeriveAddress([]byte("carol"))
	s.Require().NoError(s.store.Create(ctx, newRecord(s, alice, "Alice")))
	s.Require().NoError(s.store.Create(ctx, newRecord(s, bob, "Bob")))

	names, err := s.store.FindNames(ctx, []domain.Address{alice, bob, carol})
	s.Require().NoError(err)
	s.Equal(map[domain.Address]string{alice: "Alice", bob: "Bob"}, names)
}

func (s *PostgresNameStoreSuite) TestRolledBackCreateIsInvisible() {
	ctx := context.Background()
	runner := txcontext.NewSQLRunner(s.postgres.DB, 5*time.Second)
	alice := domain.DeriveAddress([]byte("alice"))

	boom := errors.New("later step failed")
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, newRecord(s, alice, "Mike")); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindByAddress(ctx, alice)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentUniqueNameViolation races case variants of one name across
// connections; the folded unique key admits exactly one.
func (s *PostgresNameStoreSuite) TestConcurrentUniqueNameViolation() {
	ctx := context.Background()
	const goroutines = 50
	variants := []string{"mike", "Mike", "MIKE", "mIkE"}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	records := make([]*models.NameRecord, goroutines)
	for i := range records {
		records[i] = newRecord(s, domain.DeriveAddress([]byte{byte(i), 0x01}), variants[i%len(variants)])
	}
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.Create(ctx, records[i])
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, store.ErrNameTaken):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresNameStoreSuite) TestCatalogLink() {
	ctx := context.Background()
	alice := domain.DeriveAddress([]byte("alice"))
	catalog := domain.DeriveAddress([]byte("catalog"))
	link := &models.CatalogLink{Creator: alice, Catalog: catalog, CreatedAt: time.Now()}

	s.Require().NoError(s.store.SetCatalog(ctx, link))
	s.ErrorIs(s.store.SetCatalog(ctx, link), sentinel.ErrAlreadyExists)

	found, err := s.store.FindCatalog(ctx, alice)
	s.Require().NoError(err)
	s.Equal(catalog, found.Catalog)
}
