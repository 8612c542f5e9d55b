// Package service implements the name registry: a write-once, case-insensitively
// unique binding between addresses and display names, plus the creator→catalog
// links the factory records.
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
	"provenance/internal/names/cache"
	namesmetrics "provenance/internal/names/metrics"
	"provenance/internal/names/models"
	"provenance/internal/names/store"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/events"
	"provenance/pkg/platform/sentinel"
	txcontext "provenance/pkg/platform/tx"
	"provenance/pkg/requestcontext"
)

type NameStore interface {
	FindByAddress(ctx context.Context, address domain.Address) (*models.NameRecord, error)
	FindByFoldedName(ctx context.Context, folded string) (*models.NameRecord, error)
	FindNames(ctx context.Context, addresses []domain.Address) (map[domain.Address]string, error)
	Create(ctx context.Context, rec *models.NameRecord) error
	SetCatalog(ctx context.Context, link *models.CatalogLink) error
	FindCatalog(ctx context.Context, creator domain.Address) (*models.CatalogLink, error)
}

type RoleStore interface {
	Grant(ctx context.Context, g accessmodels.Grant) (bool, error)
	Revoke(ctx context.Context, scope accessmodels.Scope, role accessmodels.Role, account domain.Address) (bool, error)
	Has(ctx context.Context, scope accessmodels.Scope, role accessmodels.Role, account domain.Address) (bool, error)
}

var (
	errNameUnavailable = dErrors.New(dErrors.CodeNameUnavailable, "name not available")
	errNameAlreadySet  = dErrors.New(dErrors.CodeNameAlreadySet, "creator name already set")
	errNotWriter       = dErrors.New(dErrors.CodeUnauthorized, "caller is not an authorized writer")
	errNotOwner        = dErrors.New(dErrors.CodeUnauthorized, "caller is not the registry owner")
)

// Service is the name registry.
type Service struct {
	names     NameStore
	roles     RoleStore
	tx        txcontext.Runner
	owner     domain.Address
	address   domain.Address
	logger    *slog.Logger
	publisher events.Publisher
	metrics   *namesmetrics.Metrics
	cache     *cache.ReadThrough
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPublisher sets where events go. Publishers bound to the runner's
// transaction make events visible only on commit.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *namesmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(c *cache.ReadThrough) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithAddress overrides the registry's derived address (the event source).
func WithAddress(address domain.Address) Option {
	return func(s *Service) {
		s.address = address
	}
}

// New constructs the registry owned by owner. Call Bootstrap once before serving.
func New(names NameStore, roles RoleStore, runner txcontext.Runner, owner domain.Address, opts ...Option) *Service {
	s := &Service{
		names:   names,
		roles:   roles,
		tx:      runner,
		owner:   owner,
		address: domain.DeriveAddress(owner[:], []byte("names")),
		tracer:  otel.Tracer("provenance/names"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewReadThrough(cache.NewLocal(cache.DefaultTTL))
	}
	return s
}

// Address is the registry's identity, used as the source of its events.
func (s *Service) Address() domain.Address {
	return s.address
}

func (s *Service) Owner() domain.Address {
	return s.owner
}

// Bootstrap grants the owner the authorized-writer role. Idempotent.
func (s *Service) Bootstrap(ctx context.Context) error {
	ctx = requestcontext.WithCaller(ctx, s.owner)
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.grant(txCtx, s.owner)
	})
}

// IsNameAvailable reports whether no address holds name's case-folded form.
// The empty name is never available.
func (s *Service) IsNameAvailable(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	holder, err := s.GetID(ctx, name)
	if err != nil {
		return false, err
	}
	return holder.IsZero(), nil
}

// SetName binds name to address exactly once. The caller must be address itself,
// the owner, or an authorized writer.
func (s *Service) SetName(ctx context.Context, address domain.Address, name string) error {
	start := time.Now()
	defer s.observeSetName(start)
	ctx, span := s.tracer.Start(ctx, "names.SetName", trace.WithAttributes(
		attribute.String("address", address.String()),
	))
	defer span.End()

	caller := requestcontext.Caller(ctx)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if caller != address {
			if err := s.requireWriter(txCtx, caller); err != nil {
				return err
			}
		}

		rec, err := models.NewNameRecord(address, name, requestcontext.Now(txCtx))
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
			}
			return err
		}

		// A name held by this same address reports NameAlreadySet, not NameUnavailable.
		holder, err := s.names.FindByFoldedName(txCtx, rec.FoldedName)
		switch {
		case err == nil && holder.Address != address:
			return errNameUnavailable
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check name")
		}
		if _, err := s.names.FindByAddress(txCtx, address); err == nil {
			return errNameAlreadySet
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check address")
		}

		if err := s.names.Create(txCtx, rec); err != nil {
			return wrapCreateErr(err)
		}
		return s.emit(txCtx, events.NewNameSet(s.address, address, name))
	})
	if err != nil {
		span.RecordError(err)
		s.incrementRejection(err)
		return err
	}

	s.logAudit(ctx, string(events.NameSet), "address", address.String(), "name", name)
	s.incrementNameSet()
	return nil
}

// GetName returns the name bound to address, or "" when unbound.
func (s *Service) GetName(ctx context.Context, address domain.Address) (string, error) {
	return s.cache.Get(ctx, "name:"+address.String(), func(ctx context.Context) (string, error) {
		rec, err := s.names.FindByAddress(ctx, address)
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load name")
		}
		return rec.Name, nil
	})
}

// GetID returns the address holding name (compared case-insensitively), or the
// zero address when unbound.
func (s *Service) GetID(ctx context.Context, name string) (domain.Address, error) {
	if name == "" {
		return domain.Address{}, nil
	}
	folded := models.FoldName(name)
	v, err := s.cache.Get(ctx, "id:"+folded, func(ctx context.Context) (string, error) {
		rec, err := s.names.FindByFoldedName(ctx, folded)
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve name")
		}
		return rec.Address.String(), nil
	})
	if err != nil || v == "" {
		return domain.Address{}, err
	}
	return parseCached(v)
}

// FindNames resolves many addresses at once. Unbound addresses are omitted.
func (s *Service) FindNames(ctx context.Context, addresses []domain.Address) (map[domain.Address]string, error) {
	out, err := s.names.FindNames(ctx, addresses)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve names")
	}
	return out, nil
}

// GrantWriter gives account the authorized-writer role. Owner only.
func (s *Service) GrantWriter(ctx context.Context, account domain.Address) error {
	if err := s.requireAccount(ctx, account); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.grant(txCtx, account)
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.RoleGranted), "account", account.String())
	s.incrementWriterChange("grant")
	return nil
}

// RevokeWriter removes the authorized-writer role from account. Owner only.
func (s *Service) RevokeWriter(ctx context.Context, account domain.Address) error {
	if err := s.requireAccount(ctx, account); err != nil {
		return err
	}
	sender := requestcontext.Caller(ctx)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		removed, err := s.roles.Revoke(txCtx, accessmodels.ScopeNames, accessmodels.AuthRole, account)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke writer")
		}
		if !removed {
			return nil
		}
		return s.emit(txCtx, events.NewRoleRevoked(s.address, accessmodels.AuthRole.ID(), account, sender))
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.RoleRevoked), "account", account.String())
	s.incrementWriterChange("revoke")
	return nil
}

// HasWriter reports whether account holds the authorized-writer role.
func (s *Service) HasWriter(ctx context.Context, account domain.Address) (bool, error) {
	ok, err := s.roles.Has(ctx, accessmodels.ScopeNames, accessmodels.AuthRole, account)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check writer")
	}
	return ok, nil
}

// SetCatalogAddress records the catalog provisioned for creator. Write-once;
// the caller must be the owner or an authorized writer.
func (s *Service) SetCatalogAddress(ctx context.Context, creator, catalog domain.Address) error {
	if creator.IsZero() || catalog.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "creator and catalog addresses are required")
	}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requireWriter(txCtx, requestcontext.Caller(txCtx)); err != nil {
			return err
		}
		if _, err := s.names.FindCatalog(txCtx, creator); err == nil {
			return dErrors.New(dErrors.CodeConflict, "catalog address already set")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check catalog address")
		}
		link := &models.CatalogLink{Creator: creator, Catalog: catalog, CreatedAt: requestcontext.Now(txCtx)}
		if err := s.names.SetCatalog(txCtx, link); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.New(dErrors.CodeConflict, "catalog address already set")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set catalog address")
		}
		return s.emit(txCtx, events.NewCatalogAddressSet(s.address, creator, catalog))
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, string(events.CatalogAddressSet), "creator", creator.String(), "catalog", catalog.String())
	return nil
}

// GetCatalogAddress returns creator's catalog, or the zero address.
func (s *Service) GetCatalogAddress(ctx context.Context, creator domain.Address) (domain.Address, error) {
	v, err := s.cache.Get(ctx, "catalog:"+creator.String(), func(ctx context.Context) (string, error) {
		link, err := s.names.FindCatalog(ctx, creator)
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load catalog address")
		}
		return link.Catalog.String(), nil
	})
	if err != nil || v == "" {
		return domain.Address{}, err
	}
	return parseCached(v)
}

func (s *Service) grant(ctx context.Context, account domain.Address) error {
	sender := requestcontext.Caller(ctx)
	added, err := s.roles.Grant(ctx, accessmodels.Grant{
		Scope:     accessmodels.ScopeNames,
		Role:      accessmodels.AuthRole,
		Account:   account,
		GrantedBy: sender,
		GrantedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant writer")
	}
	if !added {
		return nil
	}
	return s.emit(ctx, events.NewRoleGranted(s.address, accessmodels.AuthRole.ID(), account, sender))
}

func (s *Service) requireAccount(ctx context.Context, account domain.Address) error {
	if requestcontext.Caller(ctx) != s.owner {
		return errNotOwner
	}
	if account.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "account is required")
	}
	return nil
}

func (s *Service) requireWriter(ctx context.Context, caller domain.Address) error {
	if caller.IsZero() {
		return errNotWriter
	}
	if caller == s.owner {
		return nil
	}
	ok, err := s.roles.Has(ctx, accessmodels.ScopeNames, accessmodels.AuthRole, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check writer")
	}
	if !ok {
		return errNotWriter
	}
	return nil
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

// wrapCreateErr maps a lost insert race onto the same errors the pre-checks return.
func wrapCreateErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNameTaken):
		return errNameUnavailable
	case errors.Is(err, store.ErrAddressBound):
		return errNameAlreadySet
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind name")
	}
}

func parseCached(v string) (domain.Address, error) {
	a, err := domain.ParseAddress(v)
	if err != nil {
		return domain.Address{}, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt cached address")
	}
	return a, nil
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

func (s *Service) incrementNameSet() {
	if s.metrics != nil {
		s.metrics.IncrementNameSet()
	}
}

func (s *Service) incrementRejection(err error) {
	if s.metrics != nil {
		s.metrics.IncrementRejection(string(dErrors.CodeOf(err)))
	}
}

func (s *Service) incrementWriterChange(action string) {
	if s.metrics != nil {
		s.metrics.IncrementWriterChange(action)
	}
}

func (s *Service) observeSetName(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSetName(start)
	}
}
