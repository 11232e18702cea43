package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendora/vendora-backend/internal/cron"
	"github.com/vendora/vendora-backend/internal/escrow"
	"github.com/vendora/vendora-backend/internal/ledger"
	"github.com/vendora/vendora-backend/internal/orders"
	"github.com/vendora/vendora-backend/internal/wallets"
	"github.com/vendora/vendora-backend/internal/withdrawals"
	"github.com/vendora/vendora-backend/pkg/config"
	"github.com/vendora/vendora-backend/pkg/db"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/metrics"
	"github.com/vendora/vendora-backend/pkg/migrate"
	"github.com/vendora/vendora-backend/pkg/redis"
)

const lockKeyFormat = "vnd:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	escrowMetrics := metrics.NewEscrowMetrics(prometheus.DefaultRegisterer)

	orderRepo := orders.NewRepository(dbClient.DB())
	walletRepo := wallets.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	withdrawalRepo := withdrawals.NewRepository(dbClient.DB())

	escrowService, err := escrow.NewService(escrow.ServiceParams{
		DB:         dbClient,
		OrderRepo:  orderRepo,
		WalletRepo: walletRepo,
		LedgerRepo: ledgerRepo,
		Metrics:    escrowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	releaseJob, err := cron.NewEscrowReleaseJob(cron.EscrowReleaseJobParams{
		Logger:     logg,
		Orders:     orderRepo,
		Escrow:     escrowService,
		HoldPeriod: cfg.Escrow.HoldPeriod,
		BatchSize:  cfg.Escrow.ReleaseBatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow release job", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewWalletReconcileJob(cron.WalletReconcileJobParams{
		Logger:      logg,
		Wallets:     walletRepo,
		Orders:      orderRepo,
		Withdrawals: withdrawalRepo,
		Metrics:     escrowMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet reconcile job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(releaseJob, reconcileJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
