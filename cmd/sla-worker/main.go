package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ptcex/orderguard-backend/internal/sla"
	"github.com/ptcex/orderguard-backend/pkg/config"
	"github.com/ptcex/orderguard-backend/pkg/db"
	"github.com/ptcex/orderguard-backend/pkg/logger"
	"github.com/ptcex/orderguard-backend/pkg/metrics"
	"github.com/ptcex/orderguard-backend/pkg/migrate"
	"github.com/ptcex/orderguard-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sla-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sla-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sla-worker",
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

	engine, err := sla.NewEngine(
		sla.NewTimerRepository(dbClient.DB()),
		sla.NewOrderStore(dbClient.DB()),
		dbClient,
		outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sla engine", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:  cfg,
		Logger:  logg,
		Engine:  engine,
		Metrics: metrics.NewSlaWorkerMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sla worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sla worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sla worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sla worker shutting down gracefully")
}
