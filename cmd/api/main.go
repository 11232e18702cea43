package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendora/vendora-backend/api/routes"
	"github.com/vendora/vendora-backend/internal/businesses"
	"github.com/vendora/vendora-backend/internal/disputes"
	"github.com/vendora/vendora-backend/internal/escrow"
	"github.com/vendora/vendora-backend/internal/ledger"
	"github.com/vendora/vendora-backend/internal/orders"
	"github.com/vendora/vendora-backend/internal/payments"
	"github.com/vendora/vendora-backend/internal/wallets"
	"github.com/vendora/vendora-backend/internal/webhooks"
	"github.com/vendora/vendora-backend/internal/withdrawals"
	"github.com/vendora/vendora-backend/pkg/config"
	"github.com/vendora/vendora-backend/pkg/db"
	"github.com/vendora/vendora-backend/pkg/gateway"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/metrics"
	"github.com/vendora/vendora-backend/pkg/migrate"
	"github.com/vendora/vendora-backend/pkg/redis"
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

	escrowMetrics := metrics.NewEscrowMetrics(prometheus.DefaultRegisterer)

	orderRepo := orders.NewRepository(dbClient.DB())
	walletRepo := wallets.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	businessRepo := businesses.NewRepository(dbClient.DB())
	disputeRepo := disputes.NewRepository(dbClient.DB())
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

	paymentsService, err := payments.NewService(payments.ServiceParams{
		DB:           dbClient,
		OrderRepo:    orderRepo,
		WalletRepo:   walletRepo,
		LedgerRepo:   ledgerRepo,
		BusinessRepo: businessRepo,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	walletsService, err := wallets.NewService(wallets.ServiceParams{
		Repo:         walletRepo,
		BusinessRepo: businessRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	disputesService, err := disputes.NewService(disputes.ServiceParams{
		DB:           dbClient,
		Repo:         disputeRepo,
		Escrow:       escrowService,
		BusinessRepo: businessRepo,
		LedgerRepo:   ledgerRepo,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispute service", err)
		os.Exit(1)
	}

	withdrawalsService, err := withdrawals.NewService(withdrawals.ServiceParams{
		DB:           dbClient,
		Repo:         withdrawalRepo,
		WalletRepo:   walletRepo,
		BusinessRepo: businessRepo,
		LedgerRepo:   ledgerRepo,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawal service", err)
		os.Exit(1)
	}

	paystackVerifier, err := gateway.NewPaystack(cfg.Paystack.SecretKey)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack verifier", err)
		os.Exit(1)
	}
	flutterwaveVerifier, err := gateway.NewFlutterwave(cfg.Flutterwave.SecretHash)
	if err != nil {
		logg.Error(context.Background(), "failed to create flutterwave verifier", err)
		os.Exit(1)
	}

	paystackGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, gateway.NamePaystack)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack guard", err)
		os.Exit(1)
	}
	flutterwaveGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, gateway.NameFlutterwave)
	if err != nil {
		logg.Error(context.Background(), "failed to create flutterwave guard", err)
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
		Handler: routes.NewRouter(routes.RouterParams{
			Config:              cfg,
			Logger:              logg,
			DBPinger:            dbClient,
			RedisClient:         redisClient,
			Payments:            paymentsService,
			Escrow:              escrowService,
			Orders:              ordersService,
			Wallets:             walletsService,
			Withdrawals:         withdrawalsService,
			Disputes:            disputesService,
			Ledger:              ledgerService,
			PaystackVerifier:    paystackVerifier,
			FlutterwaveVerifier: flutterwaveVerifier,
			PaystackGuard:       paystackGuard,
			FlutterwaveGuard:    flutterwaveGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
