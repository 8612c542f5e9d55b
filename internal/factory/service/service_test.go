package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks NameRegistry,CatalogCreator,Store,RoleStore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accessmodels "provenance/internal/access/models"
	accessstore "provenance/internal/access/store"
	catalogmodels "provenance/internal/catalog/models"
	catalogservice "provenance/internal/catalog/service"
	factorymetrics "provenance/internal/factory/metrics"
	"provenance/internal/factory/models"
	"provenance/internal/factory/service/mocks"
	"provenance/internal/factory/store"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/events"
	"provenance/pkg/platform/events/memory"
	txcontext "provenance/pkg/platform/tx"
	"provenance/pkg/requestcontext"
)

var (
	owner    = domain.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	creator  = domain.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	stranger = domain.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	factory  = domain.MustParseAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
)

// =============================================================================
// Provisioning Test Suite
// =============================================================================
// The name registry and catalog constructor are mocked so each test pins the
// exact calls provisioning makes, including the identity it writes as.

type FactoryServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	names    *mocks.MockNameRegistry
	catalogs *mocks.MockCatalogCreator
	index    *store.InMemory
	roles    *accessstore.InMemory
	recorder *memory.Recorder
	metrics  *factorymetrics.Metrics
	service  *Service
}

func TestFactoryServiceSuite(t *testing.T) {
	suite.Run(t, new(FactoryServiceSuite))
}

func (s *FactoryServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.names = mocks.NewMockNameRegistry(s.ctrl)
	s.catalogs = mocks.NewMockCatalogCreator(s.ctrl)
	s.index = store.NewInMemory()
	s.roles = accessstore.NewInMemory()
	s.recorder = memory.NewRecorder()
	s.metrics = factorymetrics.New(prometheus.NewRegistry())

	var err error
	s.service, err = New(factory, owner, s.index, s.names, s.catalogs, s.roles, txcontext.NewLockRunner(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPublisher(s.recorder),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Bootstrap(context.Background()))
	s.recorder.Clear()
}

func (s *FactoryServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *FactoryServiceSuite) as(caller domain.Address) context.Context {
	return requestcontext.WithCaller(context.Background(), caller)
}

// callerIs matches contexts whose invoking identity is want.
func callerIs(want domain.Address) gomock.Matcher {
	return gomock.Cond(func(ctx context.Context) bool {
		return requestcontext.Caller(ctx) == want
	})
}

func (s *FactoryServiceSuite) catalogAddress() domain.Address {
	return domain.DeriveAddress(factory[:], creator[:])
}

func (s *FactoryServiceSuite) TestNew() {
	s.Run("zero factory address", func() {
		_, err := New(domain.Address{}, owner, s.index, s.names, s.catalogs, s.roles, txcontext.NewLockRunner())
		s.ErrorContains(err, "factory address is required")
	})

	s.Run("missing dependency", func() {
		_, err := New(factory, owner, nil, s.names, s.catalogs, s.roles, txcontext.NewLockRunner())
		s.Error(err)
	})
}

func (s *FactoryServiceSuite) TestBootstrapGrantsProvisionerRole() {
	ok, err := s.roles.Has(context.Background(), accessmodels.ScopeFactory, accessmodels.ProvisionerRole, owner)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.service.Bootstrap(context.Background()))
	s.Empty(s.recorder.Named(events.RoleGranted), "a repeated bootstrap grants nothing new")
}

func (s *FactoryServiceSuite) TestProvisionBindsNameAndCreatesCatalog() {
	catalog := s.catalogAddress()
	gomock.InOrder(
		s.names.EXPECT().GetName(gomock.Any(), creator).Return("", nil),
		s.names.EXPECT().IsNameAvailable(gomock.Any(), "Kevin").Return(true, nil),
		s.names.EXPECT().HasWriter(gomock.Any(), factory).Return(true, nil),
		s.names.EXPECT().SetName(callerIs(factory), creator, "Kevin").Return(nil),
		s.catalogs.EXPECT().CreateCatalog(callerIs(creator), catalogservice.CreateParams{
			Address:     catalog,
			Creator:     creator,
			DisplayName: "Kevin",
			Story:       "Hand carved.",
			URLTemplate: "https://www.createdbyme.io?id={0}",
		}).Return(&catalogmodels.Catalog{Address: catalog}, nil),
		s.names.EXPECT().SetCatalogAddress(callerIs(factory), creator, catalog).Return(nil),
	)

	entry, err := s.service.Provision(s.as(creator), ProvisionRequest{
		Creator:     creator,
		DisplayName: "Kevin",
		Story:       "Hand carved.",
		URLTemplate: "https://www.createdbyme.io?id={0}",
	})
	s.Require().NoError(err)
	s.Equal(catalog, entry.Catalog)
	s.Equal(0, entry.Ordinal)

	provisioned := s.recorder.Named(events.CatalogProvisioned)
	s.Require().Len(provisioned, 1)
	s.Equal([]events.Field{
		{Name: "creator", Value: creator},
		{Name: "catalog", Value: catalog},
		{Name: "story", Value: "Hand carved."},
		{Name: "invoker", Value: creator},
	}, provisioned[0].Fields)
	s.Equal(factory, provisioned[0].Source)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CatalogsProvisioned))

	got, err := s.service.CatalogOf(context.Background(), creator)
	s.Require().NoError(err)
	s.Equal(catalog, got)
}

func (s *FactoryServiceSuite) TestProvisionSnapshotsExistingName() {
	s.names.EXPECT().GetName(gomock.Any(), creator).Return("Mike", nil)
	s.names.EXPECT().HasWriter(gomock.Any(), factory).Return(true, nil)
	s.catalogs.EXPECT().CreateCatalog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p catalogservice.CreateParams) (*catalogmodels.Catalog, error) {
			s.Equal("Mike", p.DisplayName, "the bound name wins over the supplied one")
			return &catalogmodels.Catalog{Address: p.Address}, nil
		})
	s.names.EXPECT().SetCatalogAddress(gomock.Any(), creator, s.catalogAddress()).Return(nil)

	_, err := s.service.Provision(s.as(creator), ProvisionRequest{Creator: creator, DisplayName: "Ignored"})
	s.Require().NoError(err)
}

func (s *FactoryServiceSuite) TestProvisionRejections() {
	s.Run("display name required when unbound", func() {
		s.names.EXPECT().GetName(gomock.Any(), creator).Return("", nil)
		_, err := s.service.Provision(s.as(creator), ProvisionRequest{Creator: creator})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("creator display name is required", dErrors.MessageOf(err))
	})

	s.Run("unavailable name aborts before any write", func() {
		s.names.EXPECT().GetName(gomock.Any(), creator).Return("", nil)
		s.names.EXPECT().IsNameAvailable(gomock.Any(), "Taken").Return(false, nil)
		_, err := s.service.Provision(s.as(creator), ProvisionRequest{Creator: creator, DisplayName: "Taken"})
		s.True(dErrors.HasCode(err, dErrors.CodeNameUnavailable))
	})

	s.Run("factory without the name writer role", func() {
		s.names.EXPECT().GetName(gomock.Any(), creator).Return("Mike", nil)
		s.names.EXPECT().HasWriter(gomock.Any(), factory).Return(false, nil)
		_, err := s.service.Provision(s.as(creator), ProvisionRequest{Creator: creator})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("stranger may not provision for someone else", func() {
		_, err := s.service.Provision(s.as(stranger), ProvisionRequest{Creator: creator, DisplayName: "Kevin"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("anonymous caller", func() {
		_, err := s.service.Provision(context.Background(), ProvisionRequest{Creator: creator, DisplayName: "Kevin"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("zero creator", func() {
		_, err := s.service.Provision(s.as(owner), ProvisionRequest{DisplayName: "Kevin"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("catalog construction failure records nothing", func() {
		s.names.EXPECT().GetName(gomock.Any(), creator).Return("Mike", nil)
		s.names.EXPECT().HasWriter(gomock.Any(), factory).Return(true, nil)
		s.catalogs.EXPECT().CreateCatalog(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("disk full"), dErrors.CodeInternal, "failed to create catalog"))
		_, err := s.service.Provision(s.as(creator), ProvisionRequest{Creator: creator})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	page, err := s.service.ListCatalogs(context.Background(), 0, 10)
	s.Require().NoError(err)
	s.Zero(page.TotalCount)
	s.Empty(s.recorder.Named(events.CatalogProvisioned))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProvisionRejections.WithLabelValues(string(dErrors.CodeNameUnavailable))))
}

func (s *FactoryServiceSuite) TestProvisionerMayProvisionForOthers() {
	s.names.EXPECT().GetName(gomock.Any(), creator).Return("Mike", nil)
	s.names.EXPECT().HasWriter(gomock.Any(), factory).Return(true, nil)
	s.catalogs.EXPECT().CreateCatalog(callerIs(owner), gomock.Any()).Return(&catalogmodels.Catalog{}, nil)
	s.names.EXPECT().SetCatalogAddress(callerIs(factory), creator, gomock.Any()).Return(nil)

	entry, err := s.service.Provision(s.as(owner), ProvisionRequest{Creator: creator})
	s.Require().NoError(err)
	s.Equal(owner, entry.Invoker)
}

func (s *FactoryServiceSuite) TestReprovisionIsRejected() {
	s.names.EXPECT().GetName(gomock.Any(), creator).Return("Mike", nil)
	s.names.EXPECT().HasWriter(gomock.Any(), factory).Return(true, nil)
	s.catalogs.EXPECT().CreateCatalog(gomock.Any(), gomock.Any()).Return(&catalogmodels.Catalog{}, nil)
	s.names.EXPECT().SetCatalogAddress(gomock.Any(), creator, gomock.Any()).Return(nil)

	_, err := s.service.Provision(s.as(creator), ProvisionRequest{Creator: creator})
	s.Require().NoError(err)

	_, err = s.service.Provision(s.as(creator), ProvisionRequest{Creator: creator})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("creator already provisioned", dErrors.MessageOf(err))
}

func (s *FactoryServiceSuite) TestDirectoryResolvesNamesInOneBatch() {
	for _, c := range []domain.Address{creator, stranger} {
		e := s.entry(c)
		s.Require().NoError(s.index.Append(context.Background(), e))
	}
	s.names.EXPECT().FindNames(gomock.Any(), []domain.Address{creator, stranger}).
		Return(map[domain.Address]string{creator: "Kevin"}, nil).Times(1)

	page, err := s.service.Directory(context.Background(), 0, 5)
	s.Require().NoError(err)
	s.Equal(2, page.Count)
	s.Len(page.Items, 5)
	s.Equal("Kevin", page.Items[0].DisplayName)
	s.Empty(page.Items[1].DisplayName)
}

func (s *FactoryServiceSuite) TestDirectoryOnEmptyPageSkipsLookup() {
	page, err := s.service.Directory(context.Background(), 0, 5)
	s.Require().NoError(err)
	s.Zero(page.Count)
}

func (s *FactoryServiceSuite) TestListCatalogsValidatesPageSize() {
	_, err := s.service.ListCatalogs(context.Background(), 0, 105)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.service.ListCatalogs(context.Background(), -1, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *FactoryServiceSuite) entry(c domain.Address) *models.Entry {
	return &models.Entry{
		Creator:   c,
		Catalog:   domain.DeriveAddress(factory[:], c[:]),
		Invoker:   c,
		CreatedAt: time.Now(),
	}
}
