package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/ptcex/orderguard-backend/api/routes"
	"github.com/ptcex/orderguard-backend/internal/insurancefund"
	"github.com/ptcex/orderguard-backend/internal/ledger"
	"github.com/ptcex/orderguard-backend/internal/negotiation"
	"github.com/ptcex/orderguard-backend/internal/orders"
	"github.com/ptcex/orderguard-backend/internal/payments"
	"github.com/ptcex/orderguard-backend/internal/refunds"
	"github.com/ptcex/orderguard-backend/internal/sla"
	"github.com/ptcex/orderguard-backend/internal/tenants"
	"github.com/ptcex/orderguard-backend/pkg/config"
	"github.com/ptcex/orderguard-backend/pkg/db"
	"github.com/ptcex/orderguard-backend/pkg/logger"
	"github.com/ptcex/orderguard-backend/pkg/migrate"
	"github.com/ptcex/orderguard-backend/pkg/outbox"
	"github.com/ptcex/orderguard-backend/pkg/redis"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	publisher := outbox.NewService(outbox.NewRepository(gormDB), logg)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	tenantSvc, err := tenants.NewService(tenants.NewRepository(gormDB), cfg.Insurance)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant service", err)
		os.Exit(1)
	}
	fundSvc, err := insurancefund.NewService(ledgerSvc, tenantSvc, dbClient, publisher, cfg.Insurance)
	if err != nil {
		logg.Error(context.Background(), "failed to create insurance fund service", err)
		os.Exit(1)
	}
	paymentsSvc, err := payments.NewService(ledgerSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	negotiationSvc, err := negotiation.NewService(negotiation.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create negotiation service", err)
		os.Exit(1)
	}
	slaEngine, err := sla.NewEngine(
		sla.NewTimerRepository(gormDB),
		sla.NewOrderStore(gormDB),
		dbClient,
		publisher,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sla engine", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersSvc, err := orders.NewService(ordersRepo, paymentsSvc, fundSvc, negotiationSvc, slaEngine, dbClient, publisher)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	approvers, err := refunds.NewStaticApproverDirectory(cfg.Approvals)
	if err != nil {
		logg.Error(context.Background(), "failed to create approver directory", err)
		os.Exit(1)
	}
	refundsSvc, err := refunds.NewService(refunds.NewRepository(gormDB), ordersRepo, fundSvc, approvers, dbClient, publisher)
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, ordersSvc, ordersRepo, refundsSvc, fundSvc, ledgerSvc),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
