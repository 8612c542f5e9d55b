// Package service provisions one catalog per creator and keeps the factory's
// insertion-ordered creator index.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accessmodels "provenance/internal/access/models"
	catalogmodels "provenance/internal/catalog/models"
	catalogservice "provenance/internal/catalog/service"
	factorymetrics "provenance/internal/factory/metrics"
	"provenance/internal/factory/models"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/events"
	"provenance/pkg/platform/sentinel"
	pstrings "provenance/pkg/platform/strings"
	txcontext "provenance/pkg/platform/tx"
	"provenance/pkg/requestcontext"
)

// NameRegistry is the slice of the name registry the factory writes through.
type NameRegistry interface {
	IsNameAvailable(ctx context.Context, name string) (bool, error)
	GetName(ctx context.Context, address domain.Address) (string, error)
	SetName(ctx context.Context, address domain.Address, name string) error
	SetCatalogAddress(ctx context.Context, creator, catalog domain.Address) error
	HasWriter(ctx context.Context, account domain.Address) (bool, error)
	FindNames(ctx context.Context, addresses []domain.Address) (map[domain.Address]string, error)
}

// CatalogCreator constructs catalogs.
type CatalogCreator interface {
	CreateCatalog(ctx context.Context, p catalogservice.CreateParams) (*catalogmodels.Catalog, error)
}

type Store interface {
	Append(ctx context.Context, e *models.Entry) error
	FindByCreator(ctx context.Context, creator domain.Address) (*models.Entry, error)
	List(ctx context.Context, offset, pageSize int) (pagination.Page[models.Entry], error)
}

type RoleStore interface {
	Grant(ctx context.Context, g accessmodels.Grant) (bool, error)
	Has(ctx context.Context, scope accessmodels.Scope, role accessmodels.Role, account domain.Address) (bool, error)
}

var (
	errAlreadyProvisioned  = dErrors.New(dErrors.CodeConflict, "creator already provisioned")
	errDisplayNameRequired = dErrors.New(dErrors.CodeValidation, "creator display name is required")
	errNotAuthorized       = dErrors.New(dErrors.CodeUnauthorized, "caller may not provision for this creator")
	errFactoryNotWriter    = dErrors.New(dErrors.CodeUnauthorized, "factory is not an authorized name writer")
)

type Service struct {
	address   domain.Address
	owner     domain.Address
	index     Store
	names     NameRegistry
	catalogs  CatalogCreator
	roles     RoleStore
	tx        txcontext.Runner
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *factorymetrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *factorymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New returns a factory acting as address. owner holds the provisioner role
// after Bootstrap.
func New(address, owner domain.Address, index Store, names NameRegistry, catalogs CatalogCreator, roles RoleStore, runner txcontext.Runner, opts ...Option) (*Service, error) {
	if address.IsZero() {
		return nil, errors.New("factory address is required")
	}
	if index == nil || names == nil || catalogs == nil || roles == nil || runner == nil {
		return nil, errors.New("factory dependencies are required")
	}
	s := &Service{
		address:  address,
		owner:    owner,
		index:    index,
		names:    names,
		catalogs: catalogs,
		roles:    roles,
		tx:       runner,
		tracer:   otel.Tracer("provenance/factory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Address() domain.Address {
	return s.address
}

// Bootstrap grants the owner the provisioner role. Safe to repeat.
func (s *Service) Bootstrap(ctx context.Context) error {
	if s.owner.IsZero() {
		return nil
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		added, err := s.roles.Grant(txCtx, accessmodels.Grant{
			Scope:     accessmodels.ScopeFactory,
			Role:      accessmodels.ProvisionerRole,
			Account:   s.owner,
			GrantedBy: s.owner,
			GrantedAt: requestcontext.Now(txCtx),
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant provisioner role")
		}
		if !added {
			return nil
		}
		return s.emit(txCtx, events.NewRoleGranted(s.address, accessmodels.ProvisionerRole.ID(), s.owner, s.owner))
	})
}

// ProvisionRequest describes a catalog to provision. DisplayName is ignored
// when the creator already holds a registry name.
type ProvisionRequest struct {
	Creator     domain.Address
	DisplayName string
	Story       string
	URLTemplate string
}

// Provision binds the creator's name if needed, constructs the catalog, and
// records it in the factory index and the name registry as one unit of work.
// Every precondition is checked before the first write.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (*models.Entry, error) {
	start := time.Now()
	defer s.observeProvision(start)
	ctx, span := s.tracer.Start(ctx, "factory.Provision",
		trace.WithAttributes(attribute.String("creator", req.Creator.String())))
	defer span.End()

	invoker := requestcontext.Caller(ctx)
	var entry *models.Entry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Creator.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "creator is required")
		}
		if err := s.authorize(txCtx, invoker, req.Creator); err != nil {
			return err
		}
		if _, err := s.index.FindByCreator(txCtx, req.Creator); err == nil {
			return errAlreadyProvisioned
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check factory index")
		}
		displayName, bindName, err := s.resolveDisplayName(txCtx, req)
		if err != nil {
			return err
		}
		writer, err := s.names.HasWriter(txCtx, s.address)
		if err != nil {
			return err
		}
		if !writer {
			return errFactoryNotWriter
		}

		// The factory, not the invoker, writes into the name registry.
		asFactory := requestcontext.WithCaller(txCtx, s.address)
		if bindName {
			if err := s.names.SetName(asFactory, req.Creator, displayName); err != nil {
				return err
			}
		}

		catalogAddress := domain.DeriveAddress(s.address[:], req.Creator[:])
		if _, err := s.catalogs.CreateCatalog(txCtx, catalogservice.CreateParams{
			Address:     catalogAddress,
			Creator:     req.Creator,
			DisplayName: displayName,
			Story:       req.Story,
			URLTemplate: req.URLTemplate,
		}); err != nil {
			return err
		}

		e, err := models.NewEntry(req.Creator, catalogAddress, invoker, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.index.Append(txCtx, e); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return errAlreadyProvisioned
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record catalog")
		}
		if err := s.names.SetCatalogAddress(asFactory, req.Creator, catalogAddress); err != nil {
			return err
		}
		if err := s.emit(txCtx, events.NewCatalogProvisioned(s.address, req.Creator, catalogAddress, req.Story, invoker)); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if s.metrics != nil {
			s.metrics.IncrementRejection(string(dErrors.CodeOf(err)))
		}
		return nil, err
	}

	s.logAudit(ctx, string(events.CatalogProvisioned),
		"creator", req.Creator.String(),
		"catalog", entry.Catalog.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementProvisioned()
	}
	return entry, nil
}

// resolveDisplayName snapshots an existing registry name, or checks that the
// supplied one can be bound.
func (s *Service) resolveDisplayName(ctx context.Context, req ProvisionRequest) (name string, bind bool, err error) {
	existing, err := s.names.GetName(ctx, req.Creator)
	if err != nil {
		return "", false, err
	}
	if existing != "" {
		return existing, false, nil
	}
	if pstrings.IsEmpty(req.DisplayName) {
		return "", false, errDisplayNameRequired
	}
	available, err := s.names.IsNameAvailable(ctx, req.DisplayName)
	if err != nil {
		return "", false, err
	}
	if !available {
		return "", false, dErrors.New(dErrors.CodeNameUnavailable, "name not available")
	}
	return req.DisplayName, true, nil
}

// authorize lets creators provision for themselves and provisioners for anyone.
func (s *Service) authorize(ctx context.Context, invoker, creator domain.Address) error {
	if invoker.IsZero() {
		return errNotAuthorized
	}
	if invoker == creator {
		return nil
	}
	ok, err := s.roles.Has(ctx, accessmodels.ScopeFactory, accessmodels.ProvisionerRole, invoker)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check provisioner role")
	}
	if !ok {
		return errNotAuthorized
	}
	return nil
}

// ListCatalogs pages through provisioned catalog addresses in provisioning order.
func (s *Service) ListCatalogs(ctx context.Context, offset, pageSize int) (pagination.Page[domain.Address], error) {
	entries, err := s.list(ctx, offset, pageSize)
	if err != nil {
		return pagination.Page[domain.Address]{}, err
	}
	addresses := make([]domain.Address, len(entries.Items))
	for i, e := range entries.Filled() {
		addresses[i] = e.Catalog
	}
	return pagination.Page[domain.Address]{Items: addresses, Count: entries.Count, TotalCount: entries.TotalCount}, nil
}

// Directory is ListCatalogs with each creator's registry name resolved in one batch.
func (s *Service) Directory(ctx context.Context, offset, pageSize int) (pagination.Page[models.Listing], error) {
	entries, err := s.list(ctx, offset, pageSize)
	if err != nil {
		return pagination.Page[models.Listing]{}, err
	}
	filled := entries.Filled()
	creators := make([]domain.Address, len(filled))
	for i, e := range filled {
		creators[i] = e.Creator
	}
	names := map[domain.Address]string{}
	if len(creators) > 0 {
		if names, err = s.names.FindNames(ctx, creators); err != nil {
			return pagination.Page[models.Listing]{}, err
		}
	}
	listings := make([]models.Listing, len(entries.Items))
	for i, e := range filled {
		listings[i] = models.Listing{Entry: e, DisplayName: names[e.Creator]}
	}
	return pagination.Page[models.Listing]{Items: listings, Count: entries.Count, TotalCount: entries.TotalCount}, nil
}

// CatalogOf returns the creator's catalog address, or the zero address.
func (s *Service) CatalogOf(ctx context.Context, creator domain.Address) (domain.Address, error) {
	e, err := s.index.FindByCreator(ctx, creator)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.Address{}, nil
	}
	if err != nil {
		return domain.Address{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read factory index")
	}
	return e.Catalog, nil
}

func (s *Service) list(ctx context.Context, offset, pageSize int) (pagination.Page[models.Entry], error) {
	if err := pagination.Validate(offset, pageSize); err != nil {
		return pagination.Page[models.Entry]{}, err
	}
	page, err := s.index.List(ctx, offset, pageSize)
	if err != nil {
		return page, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list catalogs")
	}
	return page, nil
}

func (s *Service) emit(ctx context.Context, e events.Event) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Emit(ctx, events.Stamp(ctx, e)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	attributes = append(attributes, "caller", requestcontext.Caller(ctx).String())
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) observeProvision(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveProvision(start)
	}
}
