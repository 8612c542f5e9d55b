//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"provenance/pkg/domain"
	"provenance/pkg/testutil/containers"
)

// PostgresGrantStoreSuite runs the shared grant lifecycle against Postgres.
type PostgresGrantStoreSuite struct {
	GrantStoreSuite
	postgres *containers.PostgresContainer
}

func TestPostgresGrantStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresGrantStoreSuite))
}

func (s *PostgresGrantStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresGrantStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "role_grants"))
	s.store = NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
	s.owner = domain.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	s.alice = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
}
