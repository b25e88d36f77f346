package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/agrisoko/farmhub-backend/api/routes"
	"github.com/agrisoko/farmhub-backend/internal/hubs"
	"github.com/agrisoko/farmhub-backend/internal/inventory"
	"github.com/agrisoko/farmhub-backend/internal/ledger"
	"github.com/agrisoko/farmhub-backend/internal/notifications"
	"github.com/agrisoko/farmhub-backend/internal/orders"
	"github.com/agrisoko/farmhub-backend/internal/settlement"
	"github.com/agrisoko/farmhub-backend/internal/users"
	"github.com/agrisoko/farmhub-backend/pkg/config"
	"github.com/agrisoko/farmhub-backend/pkg/db"
	"github.com/agrisoko/farmhub-backend/pkg/gateway"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
	"github.com/agrisoko/farmhub-backend/pkg/metrics"
	"github.com/agrisoko/farmhub-backend/pkg/migrate"
	"github.com/agrisoko/farmhub-backend/pkg/redis"
)

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
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	lotsRepo := inventory.NewRepository(dbClient.DB())
	hubsRepo := hubs.NewRepository(dbClient.DB())
	paymentsRepo := settlement.NewPaymentsRepository(dbClient.DB())
	payoutsRepo := settlement.NewPayoutsRepository(dbClient.DB())

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(dbClient, ordersRepo, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	settlementService, err := settlement.NewService(
		dbClient,
		paymentsRepo,
		payoutsRepo,
		ordersRepo,
		lotsRepo,
		hubsRepo,
		users.NewRepository(dbClient.DB()),
		ledgerService,
		notificationsService,
		gateway.NewSimulator(cfg.Gateway, logg),
		cfg.Settlement,
		settlementMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Orders:        ordersService,
			Settlement:    settlementService,
			Notifications: notificationsService,
			Hubs:          hubsRepo,
			Lots:          lotsRepo,
			HTTPMetrics:   httpMetrics,
			Registry:      registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
