package main

import (
	"context"
	"errors"
	"fmt"

	domaccount "github.com/Zhima-Mochi/shophub/internal/domain/account"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domfavorite "github.com/Zhima-Mochi/shophub/internal/domain/favorite"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	domreview "github.com/Zhima-Mochi/shophub/internal/domain/review"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/config"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/memory"
	obsinfra "github.com/Zhima-Mochi/shophub/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/seed"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "shophub"

// catalogStore is what both the use cases and the seeder need from a catalog backend.
type catalogStore interface {
	domcatalog.Repository
	seed.CatalogWriter
}

type storage struct {
	orders    domorder.Repository
	catalog   catalogStore
	reviews   domreview.Repository
	favorites domfavorite.Repository
	users     domaccount.UserRepository
	admins    domaccount.AdminRepository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func()
	durable bool
}

// runtime holds what every subcommand shares: configuration, logging, metrics and storage.
type runtime struct {
	cfg      *config.Config
	zap      *zap.Logger
	log      observability.Logger
	tel      observability.Observability
	registry *prometheus.Registry
	store    storage
}

func newRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		File:    cfg.LogFile,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	zap.ReplaceGlobals(baseLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters, histograms := prometrics.Standard(prometrics.New(registry, "", ""))

	logger := zaplogger.New(baseLogger)
	tel := obsinfra.New(oteltrace.New(tracerName, oteltrace.WithAttributes(attribute.String("deployment.environment", cfg.Env))), logger, counters, histograms)
	systemLogger := zaplogger.New(logging.System(baseLogger))

	store, err := openStorage(ctx, cfg, systemLogger)
	if err != nil {
		_ = baseLogger.Sync()
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		zap:      baseLogger,
		log:      systemLogger,
		tel:      tel,
		registry: registry,
		store:    store,
	}, nil
}

func (rt *runtime) Close() {
	rt.store.close()
	_ = rt.zap.Sync()
}

func openStorage(ctx context.Context, cfg *config.Config, log observability.Logger) (storage, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("storage_in_memory", observability.F("reason", "database_url is empty"))
		s := memory.NewStore()
		return storage{
			orders:    s.Orders(),
			catalog:   s.Catalog(),
			reviews:   s.Reviews(),
			favorites: s.Favorites(),
			users:     s.Users(),
			admins:    s.Admins(),
			ping:      func(context.Context) error { return nil },
			migrate:   func(context.Context) error { return nil },
			close:     func() {},
		}, nil
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return storage{}, err
	}
	log.Info("storage_postgres_connected")
	return storage{
		orders:    db.Orders(),
		catalog:   db.Catalog(),
		reviews:   db.Reviews(),
		favorites: db.Favorites(),
		users:     db.Users(),
		admins:    db.Admins(),
		ping:      db.Ping,
		migrate:   db.Migrate,
		close:     db.Close,
		durable:   true,
	}, nil
}

func (rt *runtime) seed(ctx context.Context) error {
	res, err := seed.Run(ctx, rt.store.catalog, rt.store.admins, auth.NewBcryptHasher(0), seed.Admin{
		Email:    rt.cfg.AdminEmail,
		Password: rt.cfg.AdminPassword,
		Name:     "Admin",
	}, rt.log)
	if err != nil {
		return err
	}
	if res.AdminCreated && rt.cfg.Env == "production" && rt.cfg.AdminPassword == "admin123" {
		rt.log.Warn("seed_default_admin_password", observability.F("email", rt.cfg.AdminEmail))
	}
	return nil
}

var errNotDurable = errors.New("database_url is not set; nothing to migrate")
