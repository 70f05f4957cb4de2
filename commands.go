package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appaccount "github.com/Zhima-Mochi/shophub/internal/application/account"
	appfavorite "github.com/Zhima-Mochi/shophub/internal/application/favorite"
	appinventory "github.com/Zhima-Mochi/shophub/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/shophub/internal/application/order"
	apppayment "github.com/Zhima-Mochi/shophub/internal/application/payment"
	appreview "github.com/Zhima-Mochi/shophub/internal/application/review"
	appstats "github.com/Zhima-Mochi/shophub/internal/application/stats"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/auth"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/id"
	inventoryworker "github.com/Zhima-Mochi/shophub/internal/infrastructure/inventory/worker"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/memory"
	orderworker "github.com/Zhima-Mochi/shophub/internal/infrastructure/order/worker"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/outbox"
	paymentworker "github.com/Zhima-Mochi/shophub/internal/infrastructure/payment/worker"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/paysim"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/redisstore"
	stripeinfra "github.com/Zhima-Mochi/shophub/internal/infrastructure/stripe"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	httppresentation "github.com/Zhima-Mochi/shophub/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/shophub/internal/presentation/worker"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	var migrate, seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, event workers and payment reconciler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *configPath, migrate, seed)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed demo catalog and admin before serving (always on without a database)")
	return cmd
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if !rt.store.durable {
				return errNotDurable
			}
			if err := rt.store.migrate(cmd.Context()); err != nil {
				return err
			}
			rt.log.Info("migrations_applied")
			return nil
		},
	}
}

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo categories, products and the back-office admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if !rt.store.durable {
				return fmt.Errorf("seed: %w", errNotDurable)
			}
			return rt.seed(cmd.Context())
		},
	}
}

func serve(ctx context.Context, configPath string, migrate, seed bool) error {
	rt, err := newRuntime(ctx, configPath)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, tel, log, store := rt.cfg, rt.tel, rt.log, rt.store

	if migrate {
		if err := store.migrate(ctx); err != nil {
			return err
		}
		log.Info("migrations_applied")
	}
	if seed || !store.durable {
		if err := rt.seed(ctx); err != nil {
			return err
		}
	}

	var (
		gateway  dompayment.Gateway
		verifier dompayment.WebhookVerifier
		sim      *paysim.Gateway
	)
	if cfg.UsesStripe() {
		g, err := stripeinfra.NewGateway(cfg.StripeSecretKey)
		if err != nil {
			return err
		}
		v, err := stripeinfra.NewWebhookVerifier(cfg.StripeWebhookSecret)
		if err != nil {
			return err
		}
		gateway, verifier = g, v
	} else {
		log.Warn("payment_gateway_simulated", observability.F("webhook_secret", paysim.DefaultWebhookSecret))
		v, err := stripeinfra.NewWebhookVerifier(paysim.DefaultWebhookSecret)
		if err != nil {
			return err
		}
		sim = paysim.NewGateway()
		sim.SetSuccessRate(cfg.PaymentSimSuccessRate)
		gateway, verifier = sim, v
	}

	var dedup dompayment.DedupStore
	pingRedis := func(context.Context) error { return nil }
	if cfg.RedisURL != "" {
		rdb, err := redisstore.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		dedup = redisstore.NewDedupStore(rdb, cfg.WebhookDedupTTL)
		pingRedis = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		dedup = memory.NewDedupStore(cfg.WebhookDedupTTL)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Tokens signed with a per-process secret do not survive a restart.
		secret = uuid.NewString() + uuid.NewString()
		log.Warn("jwt_secret_generated", observability.F("env", cfg.Env))
	}
	tokens, err := auth.NewJWTIssuer(secret, 0, 0)
	if err != nil {
		return err
	}

	// In-memory event bus; order events fan out to the inventory, payment and order workers.
	bus := outbox.NewBus(tel)
	bus.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		bus.Stop(stopCtx)
	}()

	ids := id.NewUUIDGenerator()
	threshold, fee := cfg.Shipping()
	policy := domorder.ShippingPolicy{FreeThreshold: threshold, Fee: fee}

	inventoryworker.New(bus, appinventory.NewReleaseStockUseCase(store.orders, bus, tel), tel).Start()
	paymentworker.New(bus, apppayment.NewRecordSaleUseCase(tel), tel).Start()
	orderworker.New(bus, tel).Start()

	reconciler := paymentworker.NewReconciler(
		apppayment.NewReconcileUseCase(store.orders, gateway, bus, tel),
		cfg.ReconcileInterval,
		cfg.ReconcileGrace,
		tel,
	)

	webhooks := apppayment.NewHandleWebhookUseCase(store.orders, verifier, dedup, bus, tel)

	handler := httppresentation.NewHandler(httppresentation.Services{
		PlaceOrder:    apporder.NewPlaceOrderUseCase(store.orders, store.catalog, gateway, ids, bus, policy, tel),
		GetOrder:      apporder.NewGetOrderUseCase(store.orders, tel),
		UserOrders:    apporder.NewListOrdersUseCase(store.orders, apporder.DefaultUserPageLimit, tel),
		AdminOrders:   apporder.NewListOrdersUseCase(store.orders, apporder.DefaultAdminPageLimit, tel),
		UpdateStatus:  apporder.NewUpdateStatusUseCase(store.orders, bus, tel),
		CreateIntent:  apppayment.NewCreateIntentUseCase(store.orders, gateway, cfg.Currency, tel),
		HandleWebhook: webhooks,
		Stats:         appstats.NewSummaryUseCase(store.orders, store.catalog, nil, tel),
		Reviews:       appreview.NewService(store.reviews, store.catalog, ids, tel),
		Favorites:     appfavorite.NewService(store.favorites, store.catalog, tel),
		Accounts:      appaccount.NewService(store.users, store.admins, auth.NewBcryptHasher(0), tokens, ids, tel),
		Health: func(ctx context.Context) error {
			return errors.Join(store.ping(ctx), pingRedis(ctx))
		},
		Metrics: promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}),
	}, httppresentation.Options{AllowedOrigins: cfg.AllowedOrigins()}, tel.Logger(), tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http_server_start", observability.F("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", observability.F("error", err.Error()))
			return err
		}
		return nil
	})
	g.Go(func() error {
		return reconciler.Run(gctx)
	})
	if sim != nil && cfg.PaymentSimWebhookDelay > 0 {
		notifier := paysim.NewNotifier(sim, paysim.DefaultWebhookSecret, cfg.PaymentSimWebhookDelay,
			func(ctx context.Context, payload []byte, signature string) error {
				ctx = workerpresentation.WithEventContext(ctx, log, map[string]string{"component": "payment_simulator"})
				_, err := webhooks.Execute(ctx, apppayment.HandleWebhookInput{Payload: payload, Signature: signature})
				return err
			}, log)
		g.Go(func() error {
			return notifier.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http_server_shutdown_error", observability.F("error", err.Error()))
			return err
		}
		log.Info("http_server_stopped")
		return nil
	})
	return g.Wait()
}
