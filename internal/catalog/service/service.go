// Package service implements the per-creator catalog: series, assets, tags and
// their paginated listings.
//
// Every write validates all preconditions inside one unit of work before it
// touches the store, so a rejected call has no observable effect.
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
	catalogmetrics "provenance/internal/catalog/metrics"
	"provenance/internal/catalog/models"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/events"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
	"provenance/pkg/requestcontext"
)

type Store interface {
	CreateCatalog(ctx context.Context, c *models.Catalog) error
	FindCatalog(ctx context.Context, address domain.Address) (*models.Catalog, error)
	CreateSeries(ctx context.Context, series *models.Series) error
	FindSeries(ctx context.Context, catalog domain.Address, id domain.SeriesID) (*models.Series, error)
	UpdateSeries(ctx context.Context, catalog domain.Address, id domain.SeriesID, fn func(*models.Series) error) error
	ListSeries(ctx context.Context, catalog domain.Address, offset, pageSize int) (pagination.Page[domain.SeriesID], error)
	CreateAsset(ctx context.Context, asset *models.Asset) error
	FindAsset(ctx context.Context, catalog domain.Address, id domain.AssetID) (*models.Asset, error)
	UpdateAsset(ctx context.Context, catalog domain.Address, id domain.AssetID, fn func(*models.Asset) error) error
	ListAssetsBySeries(ctx context.Context, catalog domain.Address, seriesID domain.SeriesID, offset, pageSize int) (pagination.Page[domain.AssetID], error)
}

type RoleStore interface {
	Grant(ctx context.Context, g accessmodels.Grant) (bool, error)
	Has(ctx context.Context, scope accessmodels.Scope, role accessmodels.Role, account domain.Address) (bool, error)
}

var (
	errCatalogNotFound = dErrors.New(dErrors.CodeNotFound, "catalog not found")
	errNotAuthorized   = dErrors.New(dErrors.CodeUnauthorized, "caller is not authorized for this catalog")
)

type Service struct {
	catalogs  Store
	roles     RoleStore
	tx        txcontext.Runner
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *catalogmetrics.Metrics
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

func WithMetrics(m *catalogmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(catalogs Store, roles RoleStore, runner txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		catalogs: catalogs,
		roles:    roles,
		tx:       runner,
		tracer:   otel.Tracer("provenance/catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams describes a catalog to construct. DisplayName must already be
// resolved from the name registry.
type CreateParams struct {
	Address     domain.Address
	Creator     domain.Address
	DisplayName string
	Story       string
	URLTemplate string
}

// CreateCatalog constructs a catalog and grants write access to its creator and
// to the invoker. The factory calls it inside its own unit of work.
func (s *Service) CreateCatalog(ctx context.Context, p CreateParams) (*models.Catalog, error) {
	invoker := requestcontext.Caller(ctx)
	var created *models.Catalog
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := models.NewCatalog(p.Address, p.Creator, p.DisplayName, p.Story, p.URLTemplate, invoker, requestcontext.Now(txCtx))
		if err != nil {
			return toValidation(err)
		}
		if err := s.catalogs.CreateCatalog(txCtx, c); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeConflict, "catalog already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create catalog")
		}
		for _, account := range writersFor(p.Creator, invoker) {
			if err := s.grantWriter(txCtx, c.Address, account, invoker); err != nil {
				return err
			}
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "CatalogCreated", "catalog", p.Address.String(), "creator", p.Creator.String())
	return created, nil
}

func writersFor(creator, invoker domain.Address) []domain.Address {
	if invoker.IsZero() || invoker == creator {
		return []domain.Address{creator}
	}
	return []domain.Address{creator, invoker}
}

// GetCreatorMetadata returns the creator view of catalog.
func (s *Service) GetCreatorMetadata(ctx context.Context, catalog domain.Address) (models.CreatorMetadata, error) {
	c, err := s.findCatalog(ctx, catalog)
	if err != nil {
		return models.CreatorMetadata{}, err
	}
	return c.Metadata(), nil
}

// CreateSeries appends a new series. SeriesExists on a duplicate id.
func (s *Service) CreateSeries(ctx context.Context, catalog domain.Address, id domain.SeriesID, description string) error {
	defer s.observe("create_series", time.Now())
	ctx, span := s.startSpan(ctx, "catalog.CreateSeries", catalog)
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.authorize(txCtx, catalog, caller)
		if err != nil {
			return err
		}
		if id.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "series id is required")
		}
		if err := models.ValidateDescription(description); err != nil {
			return err
		}
		if _, err := s.catalogs.FindSeries(txCtx, catalog, id); err == nil {
			return errSeriesExists
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check series")
		}

		now := requestcontext.Now(txCtx)
		series := &models.Series{
			Catalog:     catalog,
			ID:          id,
			Description: description,
			CreatedBy:   caller,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.catalogs.CreateSeries(txCtx, series); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return errSeriesExists
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create series")
		}
		return s.emit(txCtx, events.NewSeriesCreated(catalog, c.Creator, id, description, caller))
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.logAudit(ctx, string(events.SeriesCreated), "catalog", catalog.String(), "series_id", id.String())
	if s.metrics != nil {
		s.metrics.IncrementSeriesCreated()
	}
	return nil
}

var errSeriesExists = dErrors.New(dErrors.CodeConflict, "series exists")

// UpdateSeriesDescription replaces a series description in place.
func (s *Service) UpdateSeriesDescription(ctx context.Context, catalog domain.Address, id domain.SeriesID, description string) error {
	defer s.observe("update_series", time.Now())
	caller := requestcontext.Caller(ctx)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.authorize(txCtx, catalog, caller); err != nil {
			return err
		}
		if err := models.ValidateDescription(description); err != nil {
			return err
		}
		err := s.catalogs.UpdateSeries(txCtx, catalog, id, func(series *models.Series) error {
			series.Description = description
			series.UpdatedAt = requestcontext.Now(txCtx)
			return nil
		})
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "series not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update series")
		}
		return s.emit(txCtx, events.NewSeriesDescriptionUpdated(catalog, id, description, caller))
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.SeriesDescriptionUpdated), "catalog", catalog.String(), "series_id", id.String())
	return nil
}

// GetSeriesMetadata returns the series, or a zero Series when id is unknown.
func (s *Service) GetSeriesMetadata(ctx context.Context, catalog domain.Address, id domain.SeriesID) (*models.Series, error) {
	series, err := s.catalogs.FindSeries(ctx, catalog, id)
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load series")
	}
	if _, err := s.findCatalog(ctx, catalog); err != nil {
		return nil, err
	}
	return &models.Series{}, nil
}

// ListSeries pages through series in creation order.
func (s *Service) ListSeries(ctx context.Context, catalog domain.Address, offset, pageSize int) (pagination.Page[domain.SeriesID], error) {
	if err := pagination.Validate(offset, pageSize); err != nil {
		return pagination.Page[domain.SeriesID]{}, err
	}
	page, err := s.catalogs.ListSeries(ctx, catalog, offset, pageSize)
	if err != nil {
		return page, wrapReadErr(err, "failed to list series")
	}
	return page, nil
}

// RegisterAssetParams carries a new asset. A zero SeriesID leaves the asset
// unassigned; a SeriesID that was never created is accepted as is.
type RegisterAssetParams struct {
	ID           domain.AssetID
	SeriesID     domain.SeriesID
	Description  string
	Tags         []domain.Tag
	DocumentHash [32]byte
}

// RegisterAsset records a new asset, appends it to the global and per-series
// indexes and bumps the creator's asset count.
func (s *Service) RegisterAsset(ctx context.Context, catalog domain.Address, p RegisterAssetParams) (*models.Asset, error) {
	defer s.observe("register_asset", time.Now())
	ctx, span := s.startSpan(ctx, "catalog.RegisterAsset", catalog)
	defer span.End()

	caller := requestcontext.Caller(ctx)
	var registered *models.Asset
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.authorize(txCtx, catalog, caller)
		if err != nil {
			return err
		}
		if p.ID.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "asset id is required")
		}
		if err := models.ValidateDescription(p.Description); err != nil {
			return err
		}
		if _, err := s.catalogs.FindAsset(txCtx, catalog, p.ID); err == nil {
			return errAssetExists
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check asset")
		}

		now := requestcontext.Now(txCtx)
		asset := &models.Asset{
			Catalog:      catalog,
			ID:           p.ID,
			SeriesID:     p.SeriesID,
			Description:  p.Description,
			Creator:      caller,
			Tags:         append([]domain.Tag{}, p.Tags...),
			URL:          c.AssetURL(p.ID),
			DocumentHash: p.DocumentHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.catalogs.CreateAsset(txCtx, asset); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return errAssetExists
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register asset")
		}
		if err := s.emit(txCtx, events.NewAssetRegistered(catalog, asset.ID, asset.Description, asset.SeriesID, asset.Creator, caller)); err != nil {
			return err
		}
		if err := s.emit(txCtx, events.NewAssetTagsAdded(catalog, asset.ID, asset.Tags)); err != nil {
			return err
		}
		registered = asset
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logAudit(ctx, string(events.AssetRegistered), "catalog", catalog.String(), "asset_id", p.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementAssetRegistered()
		s.metrics.IncrementTagMutation("add", len(p.Tags))
	}
	return registered, nil
}

var errAssetExists = dErrors.New(dErrors.CodeConflict, "asset already registered")

// UpdateAssetDescription replaces an asset description in place.
func (s *Service) UpdateAssetDescription(ctx context.Context, catalog domain.Address, id domain.AssetID, description string) error {
	defer s.observe("update_asset", time.Now())
	caller := requestcontext.Caller(ctx)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.authorize(txCtx, catalog, caller); err != nil {
			return err
		}
		if err := models.ValidateDescription(description); err != nil {
			return err
		}
		err := s.updateAsset(txCtx, catalog, id, func(a *models.Asset) error {
			a.Description = description
			return nil
		})
		if err != nil {
			return err
		}
		return s.emit(txCtx, events.NewAssetDescriptionUpdated(catalog, id, description, caller))
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.AssetDescriptionUpdated), "catalog", catalog.String(), "asset_id", id.String())
	return nil
}

// GetAssetMetadata returns the asset, or a zero Asset when id is unknown.
func (s *Service) GetAssetMetadata(ctx context.Context, catalog domain.Address, id domain.AssetID) (*models.Asset, error) {
	asset, err := s.catalogs.FindAsset(ctx, catalog, id)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load asset")
	}
	if _, err := s.findCatalog(ctx, catalog); err != nil {
		return nil, err
	}
	return &models.Asset{}, nil
}

// GetAssetsBySeries pages through one series' assets in registration order.
func (s *Service) GetAssetsBySeries(ctx context.Context, catalog domain.Address, seriesID domain.SeriesID, offset, pageSize int) (pagination.Page[domain.AssetID], error) {
	if err := pagination.Validate(offset, pageSize); err != nil {
		return pagination.Page[domain.AssetID]{}, err
	}
	page, err := s.catalogs.ListAssetsBySeries(ctx, catalog, seriesID, offset, pageSize)
	if err != nil {
		return page, wrapReadErr(err, "failed to list assets")
	}
	return page, nil
}

// AddTagToAsset appends tag to the asset's tag list. Duplicates are permitted.
func (s *Service) AddTagToAsset(ctx context.Context, catalog domain.Address, id domain.AssetID, tag domain.Tag) error {
	defer s.observe("add_tag", time.Now())
	caller := requestcontext.Caller(ctx)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.authorize(txCtx, catalog, caller); err != nil {
			return err
		}
		if tag.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "tag is required")
		}
		err := s.updateAsset(txCtx, catalog, id, func(a *models.Asset) error {
			a.AddTag(tag)
			return nil
		})
		if err != nil {
			return err
		}
		return s.emit(txCtx, events.NewAssetTagsAdded(catalog, id, []domain.Tag{tag}))
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.AssetTagsAdded), "catalog", catalog.String(), "asset_id", id.String(), "tag", tag.String())
	if s.metrics != nil {
		s.metrics.IncrementTagMutation("add", 1)
	}
	return nil
}

// RemoveTagFromAsset removes the first occurrence of tag, compacting the list
// and zeroing its trailing slot.
func (s *Service) RemoveTagFromAsset(ctx context.Context, catalog domain.Address, id domain.AssetID, tag domain.Tag) error {
	defer s.observe("remove_tag", time.Now())
	caller := requestcontext.Caller(ctx)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.authorize(txCtx, catalog, caller); err != nil {
			return err
		}
		if tag.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "tag is required")
		}
		err := s.updateAsset(txCtx, catalog, id, func(a *models.Asset) error {
			if !a.RemoveTag(tag) {
				return dErrors.New(dErrors.CodeNotFound, "tag not found")
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.emit(txCtx, events.NewAssetTagRemoved(catalog, id, tag, caller))
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.AssetTagRemoved), "catalog", catalog.String(), "asset_id", id.String(), "tag", tag.String())
	if s.metrics != nil {
		s.metrics.IncrementTagMutation("remove", 1)
	}
	return nil
}

// updateAsset stamps UpdatedAt and translates store errors. Domain errors
// returned by fn pass through unchanged.
func (s *Service) updateAsset(ctx context.Context, catalog domain.Address, id domain.AssetID, fn func(*models.Asset) error) error {
	err := s.catalogs.UpdateAsset(ctx, catalog, id, func(a *models.Asset) error {
		if err := fn(a); err != nil {
			return err
		}
		a.UpdatedAt = requestcontext.Now(ctx)
		return nil
	})
	var de *dErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update asset")
	}
}

// authorize loads the catalog and requires the writer role on its scope.
func (s *Service) authorize(ctx context.Context, catalog, caller domain.Address) (*models.Catalog, error) {
	c, err := s.findCatalog(ctx, catalog)
	if err != nil {
		return nil, err
	}
	if caller.IsZero() {
		return nil, errNotAuthorized
	}
	ok, err := s.roles.Has(ctx, accessmodels.CatalogScope(catalog), accessmodels.AuthRole, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check catalog access")
	}
	if !ok {
		return nil, errNotAuthorized
	}
	return c, nil
}

func (s *Service) findCatalog(ctx context.Context, catalog domain.Address) (*models.Catalog, error) {
	c, err := s.catalogs.FindCatalog(ctx, catalog)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, errCatalogNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog")
	}
	return c, nil
}

func (s *Service) grantWriter(ctx context.Context, catalog, account, sender domain.Address) error {
	added, err := s.roles.Grant(ctx, accessmodels.Grant{
		Scope:     accessmodels.CatalogScope(catalog),
		Role:      accessmodels.AuthRole,
		Account:   account,
		GrantedBy: sender,
		GrantedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant catalog access")
	}
	if !added {
		return nil
	}
	return s.emit(ctx, events.NewRoleGranted(catalog, accessmodels.AuthRole.ID(), account, sender))
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

func (s *Service) startSpan(ctx context.Context, name string, catalog domain.Address) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("catalog", catalog.String())))
}

func toValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	return err
}

func wrapReadErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return errCatalogNotFound
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
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

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}
