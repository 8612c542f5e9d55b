package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	accessstore "provenance/internal/access/store"
	cataloghandler "provenance/internal/catalog/handler"
	catalogmetrics "provenance/internal/catalog/metrics"
	catalogservice "provenance/internal/catalog/service"
	catalogstore "provenance/internal/catalog/store"
	factoryhandler "provenance/internal/factory/handler"
	factorymetrics "provenance/internal/factory/metrics"
	factoryservice "provenance/internal/factory/service"
	factorystore "provenance/internal/factory/store"
	"provenance/internal/names/cache"
	nameshandler "provenance/internal/names/handler"
	namesmetrics "provenance/internal/names/metrics"
	namesservice "provenance/internal/names/service"
	namesstore "provenance/internal/names/store"
	"provenance/internal/platform/config"
	"provenance/internal/platform/kafka"
	"provenance/internal/platform/metrics"
	"provenance/internal/platform/migration"
	"provenance/internal/platform/postgres"
	"provenance/internal/platform/redis"
	"provenance/internal/platform/token"
	httptransport "provenance/internal/transport/http"
	"provenance/pkg/platform/events"
	"provenance/pkg/platform/events/memory"
	"provenance/pkg/platform/events/outbox"
	"provenance/pkg/platform/events/relay"
	"provenance/pkg/requestcontext"
	txcontext "provenance/pkg/platform/tx"
)

const (
	topicPartitions  = 3
	topicReplication = 1
)

// app is the fully wired process. close releases whatever was opened.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	router   http.Handler
	relay    *relay.Relay
	closers  []func()

	names   *namesservice.Service
	factory *factoryservice.Service
	catalog *catalogservice.Service
}

type storage struct {
	runner    txcontext.Runner
	names     namesservice.NameStore
	catalogs  catalogservice.Store
	index     factoryservice.Store
	roles     namesservice.RoleStore
	publisher events.Publisher
	outbox    *outbox.Store
	db        *sql.DB
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, err := a.openStorage(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	nameCache, err := a.nameCache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	checks := map[string]httptransport.HealthChecker{}
	if st.db != nil {
		checks["postgres"] = httptransport.HealthFunc(st.db.PingContext)
	}

	a.names = namesservice.New(st.names, st.roles, st.runner, cfg.Registry.Owner,
		namesservice.WithLogger(logger),
		namesservice.WithPublisher(st.publisher),
		namesservice.WithMetrics(namesmetrics.New(a.registry)),
		namesservice.WithCache(nameCache),
	)
	a.catalog = catalogservice.New(st.catalogs, st.roles, st.runner,
		catalogservice.WithLogger(logger),
		catalogservice.WithPublisher(st.publisher),
		catalogservice.WithMetrics(catalogmetrics.New(a.registry)),
	)
	a.factory, err = factoryservice.New(cfg.Registry.Factory, cfg.Registry.Owner, st.index, a.names, a.catalog, st.roles, st.runner,
		factoryservice.WithLogger(logger),
		factoryservice.WithPublisher(st.publisher),
		factoryservice.WithMetrics(factorymetrics.New(a.registry)),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	if err := a.bootstrap(ctx); err != nil {
		a.close()
		return nil, err
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, topicPartitions, topicReplication); err != nil {
			a.close()
			return nil, err
		}
		checks["kafka"] = producer
		a.relay = relay.New(st.outbox, producer, st.runner,
			relay.WithInterval(cfg.Kafka.PollInterval),
			relay.WithBatchSize(cfg.Kafka.BatchSize),
			relay.WithLogger(logger),
		)
	}

	validator := token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	a.router = httptransport.NewRouter(httptransport.Deps{
		Logger:   logger,
		Metrics:  metrics.New(a.registry),
		Gatherer: a.registry,
		Checks:   checks,
	},
		nameshandler.New(a.names, logger, validator),
		factoryhandler.New(a.factory, logger, validator),
		cataloghandler.New(a.catalog, logger, validator),
	)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) (*storage, error) {
	if a.cfg.Storage.Driver != config.DriverPostgres {
		a.logger.Info("using in-memory storage")
		return &storage{
			runner:    txcontext.NewLockRunner(),
			names:     namesstore.NewInMemory(),
			catalogs:  catalogstore.NewInMemory(),
			index:     factorystore.NewInMemory(),
			roles:     accessstore.NewInMemory(),
			publisher: memory.NewRecorder(),
		}, nil
	}

	if a.cfg.Storage.AutoMigrate {
		if err := migration.RunUp(a.cfg.Storage.DatabaseURL, a.logger); err != nil {
			return nil, err
		}
	}
	db, err := postgres.Open(ctx, a.cfg.Storage.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	ob := outbox.New(db)
	return &storage{
		runner:    txcontext.NewSQLRunner(db, a.cfg.Storage.TxTimeout),
		names:     namesstore.NewPostgres(db),
		catalogs:  catalogstore.NewPostgres(db),
		index:     factorystore.NewPostgres(db),
		roles:     accessstore.NewPostgres(db),
		publisher: ob,
		outbox:    ob,
		db:        db,
	}, nil
}

// nameCache layers Redis behind the process-local tier when configured.
func (a *app) nameCache(ctx context.Context) (*cache.ReadThrough, error) {
	tiers := []cache.Tier{cache.NewLocal(a.cfg.Redis.NameCacheTTL)}
	client, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client != nil {
		a.closers = append(a.closers, func() { _ = client.Close() })
		tiers = append(tiers, cache.NewRedis(client.Client, a.cfg.Redis.NameCacheTTL, a.logger))
	}
	return cache.NewReadThrough(tiers...), nil
}

// bootstrap grants the deployer roles and makes the factory a name writer.
func (a *app) bootstrap(ctx context.Context) error {
	ctx = requestcontext.WithCaller(ctx, a.cfg.Registry.Owner)
	if err := a.names.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap name registry: %w", err)
	}
	if err := a.factory.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap factory: %w", err)
	}
	if err := a.names.GrantWriter(ctx, a.factory.Address()); err != nil {
		return fmt.Errorf("authorize factory as name writer: %w", err)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
