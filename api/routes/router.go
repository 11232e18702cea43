package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendora/vendora-backend/api/controllers"
	webhookcontrollers "github.com/vendora/vendora-backend/api/controllers/webhooks"
	"github.com/vendora/vendora-backend/api/middleware"
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
	"github.com/vendora/vendora-backend/pkg/enums"
	"github.com/vendora/vendora-backend/pkg/gateway"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    db.Pinger
	RedisClient *redis.Client

	Payments    payments.Service
	Escrow      escrow.Service
	Orders      orders.Service
	Wallets     wallets.Service
	Withdrawals withdrawals.Service
	Disputes    disputes.Service
	Ledger      ledger.Service

	PaystackVerifier    *gateway.Paystack
	FlutterwaveVerifier *gateway.Flutterwave
	PaystackGuard       *webhooks.IdempotencyGuard
	FlutterwaveGuard    *webhooks.IdempotencyGuard
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	webhookPolicy := middleware.NewRateLimitPolicy(
		"webhooks",
		cfg.Webhooks.RateLimitWindow,
		cfg.Webhooks.RateLimitPerIP,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisClient))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(middleware.RateLimit(webhookPolicy, p.RedisClient, logg))
		r.Post("/paystack", webhookcontrollers.PaystackWebhook(p.Payments, p.PaystackVerifier, p.PaystackGuard, logg))
		r.Post("/flutterwave", webhookcontrollers.FlutterwaveWebhook(p.Payments, p.FlutterwaveVerifier, p.FlutterwaveGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(p.RedisClient, logg))

		// Vendor surface, scoped to the business claim in the token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg, string(enums.MemberRoleOwner), string(enums.MemberRoleStaff)))
			r.Use(middleware.BusinessContext(logg))

			r.Get("/wallet", controllers.VendorWallet(p.Wallets, logg))
			r.Get("/ledger", controllers.VendorLedger(p.Ledger, logg))
			r.Route("/withdrawals", func(r chi.Router) {
				r.Post("/", controllers.VendorWithdrawalRequest(p.Withdrawals, logg))
				r.Get("/", controllers.VendorWithdrawalList(p.Withdrawals, logg))
			})
			r.Get("/orders", controllers.VendorOrderList(p.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(p.Orders, logg))
		})

		// Buyer surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleBuyer), logg))

			r.Post("/disputes", controllers.BuyerDisputeOpen(p.Disputes, logg))
			r.Post("/orders/{orderId}/confirm", controllers.BuyerOrderConfirm(p.Escrow, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))
		r.Use(middleware.Idempotency(p.RedisClient, logg))

		r.Route("/disputes", func(r chi.Router) {
			r.Get("/", controllers.AdminDisputeListOpen(p.Disputes, logg))
			r.Get("/{disputeId}", controllers.AdminDisputeDetail(p.Disputes, logg))
			r.Post("/{disputeId}/resolve", controllers.AdminDisputeResolve(p.Disputes, logg))
		})
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/pending", controllers.AdminWithdrawalListPending(p.Withdrawals, logg))
			r.Post("/{withdrawalId}/approve", controllers.AdminWithdrawalApprove(p.Withdrawals, logg))
			r.Post("/{withdrawalId}/reject", controllers.AdminWithdrawalReject(p.Withdrawals, logg))
			r.Post("/{withdrawalId}/mark-paid", controllers.AdminWithdrawalMarkPaid(p.Withdrawals, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/{orderId}/release", controllers.AdminOrderRelease(p.Escrow, logg))
			r.Post("/{orderId}/refund", controllers.AdminOrderRefund(p.Escrow, logg))
		})
	})

	return r
}
