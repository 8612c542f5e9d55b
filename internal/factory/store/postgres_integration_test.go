//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"provenance/internal/factory/models"
	"provenance/internal/factory/store"
	"provenance/pkg/domain"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/testutil/containers"
)

type PostgresFactoryStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresFactoryStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresFactoryStoreSuite))
}

func (s *PostgresFactoryStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresFactoryStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "factory_index"))
}

func (s *PostgresFactoryStoreSuite) entry(seed int) *models.Entry {
	creator := domain.DeriveAddress([]byte{byte(seed), byte(seed >> 8)})
	e, err := models.NewEntry(creator, domain.DeriveAddress([]byte("factory"), creator[:]), creator,
		time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return e
}

func (s *PostgresFactoryStoreSuite) TestAppendFindList() {
	ctx := context.Background()
	for i := range 3 {
		s.Require().NoError(s.store.Append(ctx, s.entry(i)))
	}
	s.ErrorIs(s.store.Append(ctx, s.entry(0)), sentinel.ErrAlreadyExists)

	got, err := s.store.FindByCreator(ctx, s.entry(2).Creator)
	s.Require().NoError(err)
	s.Equal(2, got.Ordinal)
	s.Equal(s.entry(2).Catalog, got.Catalog)

	page, err := s.store.List(ctx, 1, 5)
	s.Require().NoError(err)
	s.Equal(2, page.Count)
	s.Equal(3, page.TotalCount)
	s.Equal(s.entry(1).Creator, page.Items[0].Creator)

	empty, err := s.store.List(ctx, 3, 5)
	s.Require().NoError(err)
	s.Zero(empty.Count)
	s.Equal(3, empty.TotalCount)
}

func (s *PostgresFactoryStoreSuite) TestConcurrentAppendsKeepOrdinalsDense() {
	ctx := context.Background()
	const workers = 20
	entries := make([]*models.Entry, workers)
	for i := range entries {
		entries[i] = s.entry(100 + i)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.store.Append(ctx, entries[i])
		}()
	}
	wg.Wait()
	for _, err := range errs {
		s.Require().NoError(err)
	}

	page, err := s.store.List(ctx, 0, workers)
	s.Require().NoError(err)
	s.Equal(workers, page.Count)
	for i, e := range page.Filled() {
		s.Equal(i, e.Ordinal)
	}
}
