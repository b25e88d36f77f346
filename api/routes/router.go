package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agrisoko/farmhub-backend/api/controllers"
	"github.com/agrisoko/farmhub-backend/api/middleware"
	"github.com/agrisoko/farmhub-backend/internal/hubs"
	"github.com/agrisoko/farmhub-backend/internal/inventory"
	"github.com/agrisoko/farmhub-backend/internal/notifications"
	"github.com/agrisoko/farmhub-backend/internal/orders"
	"github.com/agrisoko/farmhub-backend/internal/settlement"
	"github.com/agrisoko/farmhub-backend/pkg/config"
	"github.com/agrisoko/farmhub-backend/pkg/db"
	"github.com/agrisoko/farmhub-backend/pkg/enums"
	"github.com/agrisoko/farmhub-backend/pkg/logger"
	"github.com/agrisoko/farmhub-backend/pkg/metrics"
	pkgredis "github.com/agrisoko/farmhub-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. All fields are required
// unless noted.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis *pkgredis.Client

	Orders        orders.Service
	Settlement    settlement.Service
	Notifications notifications.Service
	Hubs          hubs.Repository
	Lots          inventory.Repository

	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

// NewRouter assembles the full route tree and middleware chain.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.RequestID(d.Logger))
	r.Use(middleware.Logging(d.Logger))
	if d.HTTPMetrics != nil {
		r.Use(middleware.Metrics(d.HTTPMetrics))
	}
	r.Use(middleware.CORS())

	var redisPinger db.Pinger
	if d.Redis != nil {
		redisPinger = d.Redis
	}
	r.Get("/health/live", controllers.HealthLive(d.Config))
	r.Get("/health/ready", controllers.HealthReady(d.Config, d.Logger, d.DB, redisPinger))
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Auth(d.Config.JWT, d.Logger))
		if d.Config.RateLimit.Enabled && d.Redis != nil {
			api.Use(middleware.RateLimit(d.Redis, d.Config.RateLimit.Limit, d.Config.RateLimit.Window, d.Logger))
		}
		if d.Redis != nil {
			api.Use(middleware.Idempotency(d.Redis, d.Logger))
		}

		api.Route("/buyer", func(buyer chi.Router) {
			buyer.Use(middleware.RequireRole(enums.UserRoleBuyer, d.Logger))
			buyer.Post("/orders", controllers.BuyerCreateOrder(d.Orders, d.Logger))
			buyer.Get("/orders", controllers.BuyerListOrders(d.Orders, d.Logger))
			buyer.Get("/orders/{orderId}", controllers.BuyerOrderDetail(d.Orders, d.Logger))
			buyer.Post("/orders/{orderId}/payment", controllers.BuyerInitiatePayment(d.Settlement, d.Logger))
		})

		api.Route("/clerk", func(clerk chi.Router) {
			clerk.Use(middleware.RequireRole(enums.UserRoleClerk, d.Logger))
			clerk.Post("/products", controllers.ClerkRegisterDirectSale(d.Settlement, d.Logger))
			clerk.Get("/lots", controllers.ClerkListLots(d.Hubs, d.Lots, d.Logger))
			clerk.Get("/payouts", controllers.ClerkListPendingPayouts(d.Settlement, d.Logger))
			clerk.Post("/payouts/{payoutId}/process", controllers.ClerkProcessPayout(d.Settlement, d.Logger))
		})

		api.Route("/farmer", func(farmer chi.Router) {
			farmer.Use(middleware.RequireRole(enums.UserRoleFarmer, d.Logger))
			farmer.Get("/lots", controllers.FarmerListLots(d.Lots, d.Logger))
			farmer.Get("/payouts", controllers.FarmerListPayouts(d.Settlement, d.Logger))
		})

		api.Route("/notifications", func(n chi.Router) {
			n.Get("/", controllers.ListNotifications(d.Notifications, d.Logger))
			n.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, d.Logger))
			n.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, d.Logger))
		})
	})

	return r
}
