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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartpos/smartpos-backend/api/controllers"
	"github.com/smartpos/smartpos-backend/api/routes"
	"github.com/smartpos/smartpos-backend/internal/auth"
	"github.com/smartpos/smartpos-backend/internal/branches"
	"github.com/smartpos/smartpos-backend/internal/businesses"
	"github.com/smartpos/smartpos-backend/internal/clients"
	"github.com/smartpos/smartpos-backend/internal/inventory"
	"github.com/smartpos/smartpos-backend/internal/ledger"
	"github.com/smartpos/smartpos-backend/internal/onboarding"
	"github.com/smartpos/smartpos-backend/internal/orders"
	product "github.com/smartpos/smartpos-backend/internal/products"
	"github.com/smartpos/smartpos-backend/internal/push"
	"github.com/smartpos/smartpos-backend/internal/subscriptions"
	"github.com/smartpos/smartpos-backend/internal/tenant"
	"github.com/smartpos/smartpos-backend/internal/users"
	"github.com/smartpos/smartpos-backend/pkg/auth/session"
	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/metrics"
	"github.com/smartpos/smartpos-backend/pkg/migrate"
	"github.com/smartpos/smartpos-backend/pkg/redis"
	"github.com/smartpos/smartpos-backend/pkg/webpush"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	requireResource(bootCtx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		logg.Error(bootCtx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	requireResource(bootCtx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(bootCtx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(registry)
	pushMetrics := metrics.NewPushMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	branchesRepo := branches.NewRepository(gormDB)
	businessesRepo := businesses.NewRepository(gormDB)
	productsRepo := product.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	onboardingRepo := onboarding.NewRepository(gormDB)
	subscriptionsRepo := subscriptions.NewRepository(gormDB)
	pushRepo := push.NewRepository(gormDB)

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptionsRepo,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	requireResource(bootCtx, logg, "subscriptions service", err)

	onboardingService, err := onboarding.NewService(onboardingRepo, logg)
	requireResource(bootCtx, logg, "onboarding service", err)

	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:              ledger.NewRepository(gormDB),
		TransactionRunner: dbClient,
		Locker:            dbClient.Locker(),
		Metrics:           ledgerMetrics,
		Logger:            logg,
	})
	requireResource(bootCtx, logg, "ledger service", err)

	inventoryService, err := inventory.NewService(ledgerService, gormDB)
	requireResource(bootCtx, logg, "inventory service", err)

	productService, err := product.NewService(productsRepo, onboardingService, logg)
	requireResource(bootCtx, logg, "product service", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:              ordersRepo,
		TransactionRunner: dbClient,
		Products:          productsRepo,
		Branches:          branchesRepo,
		Milestones:        onboardingService,
		Logger:            logg,
	})
	requireResource(bootCtx, logg, "order service", err)

	businessService, err := businesses.NewService(businessesRepo)
	requireResource(bootCtx, logg, "business service", err)

	branchService, err := branches.NewService(branchesRepo)
	requireResource(bootCtx, logg, "branch service", err)

	userService, err := users.NewService(usersRepo, branchesRepo, cfg.Password)
	requireResource(bootCtx, logg, "user service", err)

	var pushService push.Service
	if cfg.Push.Enabled() {
		notifier, err := webpush.NewNotifier(cfg.Push)
		requireResource(bootCtx, logg, "webpush notifier", err)
		pushService, err = push.NewService(pushRepo, notifier, pushMetrics, logg)
		requireResource(bootCtx, logg, "push service", err)
	} else {
		logg.Warn(bootCtx, "VAPID keys missing, push delivery disabled")
		pushService, err = push.NewService(pushRepo, nil, pushMetrics, logg)
		requireResource(bootCtx, logg, "push service", err)
	}

	clientService, err := clients.NewService(clients.ServiceParams{
		Businesses:    businessesRepo,
		Users:         usersRepo,
		Products:      productsRepo,
		Sales:         ordersRepo,
		Installs:      onboardingRepo,
		Subscriptions: subscriptionService,
		Push:          pushService,
		Logger:        logg,
	})
	requireResource(bootCtx, logg, "client service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		Subscriptions:  subscriptionService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	requireResource(bootCtx, logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		Trials:         subscriptionService,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	requireResource(bootCtx, logg, "register service", err)

	resolver, err := tenant.NewResolver(usersRepo, branchesRepo)
	requireResource(bootCtx, logg, "tenant resolver", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		Sessions:    sessionManager,
		Resolver:    resolver,
		Access:      subscriptionService,
		RateLimits:  redisClient,
		Idempotency: redisClient,
		Pingers: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Requests: httpMetrics,
	}, routes.Services{
		Auth:       authService,
		Register:   registerService,
		Businesses: businessService,
		Branches:   branchService,
		Users:      userService,
		Products:   productService,
		Orders:     orderService,
		Inventory:  inventoryService,
		Onboarding: onboardingService,
		Push:       pushService,
		Clients:    clientService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("failed to bootstrap %s", resource), err)
	os.Exit(1)
}
