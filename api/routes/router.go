package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ptcex/orderguard-backend/api/controllers"
	"github.com/ptcex/orderguard-backend/api/middleware"
	"github.com/ptcex/orderguard-backend/internal/insurancefund"
	"github.com/ptcex/orderguard-backend/internal/ledger"
	"github.com/ptcex/orderguard-backend/internal/orders"
	"github.com/ptcex/orderguard-backend/internal/refunds"
	"github.com/ptcex/orderguard-backend/pkg/config"
	"github.com/ptcex/orderguard-backend/pkg/db"
	"github.com/ptcex/orderguard-backend/pkg/logger"
	"github.com/ptcex/orderguard-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	ordersSvc orders.Service,
	ordersRepo orders.Repository,
	refundsSvc refunds.Service,
	fundSvc insurancefund.Service,
	ledgerSvc ledger.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TenantContext(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersRepo, logg))
			r.Post("/", controllers.CreateOrder(ordersSvc, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersSvc, logg))
			r.Get("/{orderId}/ledger", controllers.OrderLedger(ordersSvc, ledgerSvc, logg))
			r.Post("/{orderId}/transition", controllers.TransitionOrder(ordersSvc, logg))
			r.Post("/{orderId}/validate-transition", controllers.ValidateTransition(ordersSvc, logg))
			r.Get("/{orderId}/available-transitions", controllers.AvailableTransitions(ordersSvc, logg))
		})

		r.Route("/refunds", func(r chi.Router) {
			r.Get("/", controllers.ListRefundsByOrder(refundsSvc, logg))
			r.Post("/", controllers.CreateRefund(refundsSvc, logg))
			r.Get("/{requestId}", controllers.RefundDetail(refundsSvc, logg))
			r.Post("/{requestId}/approvals", controllers.ProcessApproval(refundsSvc, logg))
			r.Post("/{requestId}/resubmit", controllers.ResubmitRefund(refundsSvc, logg))
			r.Get("/{requestId}/workflow", controllers.RefundWorkflow(refundsSvc, logg))
		})

		r.Route("/fund", func(r chi.Router) {
			r.Get("/balance", controllers.FundBalance(fundSvc, logg))
			r.Get("/health", controllers.FundHealth(fundSvc, logg))
			r.Get("/ledger", controllers.FundLedger(ledgerSvc, logg))
			r.Post("/contributions", controllers.FundContribute(fundSvc, logg))
			r.Get("/statistics", controllers.FundStatistics(fundSvc, logg))
		})
	})

	return r
}
