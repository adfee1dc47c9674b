package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medibill/pos-backend/api/controllers"
	"github.com/medibill/pos-backend/api/middleware"
	"github.com/medibill/pos-backend/internal/auth"
	"github.com/medibill/pos-backend/internal/catalog"
	checkoutsvc "github.com/medibill/pos-backend/internal/checkout"
	"github.com/medibill/pos-backend/internal/customers"
	"github.com/medibill/pos-backend/internal/receipts"
	"github.com/medibill/pos-backend/internal/reports"
	"github.com/medibill/pos-backend/internal/users"
	"github.com/medibill/pos-backend/pkg/access"
	"github.com/medibill/pos-backend/pkg/auth/session"
	"github.com/medibill/pos-backend/pkg/config"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/metrics"
	"github.com/medibill/pos-backend/pkg/redis"
)

// NewRouter mounts every API route. redisClient may be nil; the login rate
// limit and idempotency replay are then switched off.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	sessionChecker session.AccessSessionChecker,
	authService auth.Service,
	catalogService catalog.Service,
	customerService customers.Service,
	checkoutService checkoutsvc.Service,
	receiptService receipts.Service,
	reportService reports.Service,
	userService users.Service,
) http.Handler {
	// Typed nil pointers must not reach the middleware as non-nil interfaces.
	var (
		limiterStore middleware.RateLimitStore
		idemStore    redis.IdempotencyStore
		redisPinger  controllers.Pinger
	)
	if redisClient != nil {
		limiterStore = redisClient
		idemStore = redisClient
		redisPinger = redisClient
	}
	var dbPinger controllers.Pinger
	if dbP != nil {
		dbPinger = dbP
	}

	throttle := middleware.NewUserThrottle(middleware.ThrottleConfig{
		RequestsPerSecond: cfg.HTTP.ThrottleRPS,
		Burst:             cfg.HTTP.ThrottleBurst,
	})

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.HTTP.LoginWindow,
		cfg.HTTP.LoginIPLimit,
		cfg.HTTP.LoginUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiterStore, logg)).Post("/login", controllers.AuthLogin(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))
		r.Use(middleware.Throttle(throttle, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Post("/auth/logout", controllers.AuthLogout(authService, logg))
			r.Get("/auth/me", controllers.AuthMe(authService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(access.PermissionPOS, logg))

				r.Route("/catalog", func(r chi.Router) {
					r.Get("/products", controllers.CatalogSearch(catalogService, logg))
					r.Get("/products/{productId}", controllers.CatalogProduct(catalogService, logg))
					r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
				})

				r.Route("/checkout/sessions", func(r chi.Router) {
					r.Post("/", controllers.CheckoutOpen(checkoutService, logg))
					r.Route("/{sessionId}", func(r chi.Router) {
						r.Get("/", controllers.CheckoutGet(checkoutService, logg))
						r.Delete("/", controllers.CheckoutClose(checkoutService, logg))
						r.Post("/items", controllers.CheckoutAddItem(checkoutService, logg))
						r.Patch("/items/{itemId}", controllers.CheckoutUpdateItem(checkoutService, logg))
						r.Delete("/items/{itemId}", controllers.CheckoutRemoveItem(checkoutService, logg))
						r.Put("/customer", controllers.CheckoutSelectCustomer(checkoutService, logg))
						r.Put("/payment-method", controllers.CheckoutSelectPaymentMethod(checkoutService, logg))
						r.Post("/payment", controllers.CheckoutProcessPayment(checkoutService, logg))
						r.Get("/payment", controllers.CheckoutAwaitPayment(checkoutService, logg))
						r.Delete("/payment", controllers.CheckoutCancelPayment(checkoutService, logg))
						r.Post("/payment/retry", controllers.CheckoutRetryPayment(checkoutService, logg))
						r.Post("/receipt", controllers.CheckoutGenerateReceipt(checkoutService, logg))
					})
				})

				r.Route("/receipts", func(r chi.Router) {
					r.Get("/", controllers.ReceiptList(receiptService, logg))
					r.Get("/{number}", controllers.ReceiptGet(receiptService, logg))
				})
			})

			r.Route("/customers", func(r chi.Router) {
				r.Use(middleware.RequirePermission(access.PermissionCustomers, logg))
				r.Get("/", controllers.CustomerList(customerService, logg))
				r.Post("/", controllers.CustomerCreate(customerService, logg))
				r.Get("/stats", controllers.CustomerStats(customerService, logg))
				r.Get("/{customerId}", controllers.CustomerGet(customerService, logg))
				r.Get("/{customerId}/receipts", controllers.CustomerHistory(customerService, receiptService, logg))
				r.Post("/{customerId}/select", controllers.CustomerSelect(customerService, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Use(middleware.RequirePermission(access.PermissionInventory, logg))
				r.Get("/summary", controllers.InventorySummary(catalogService, logg))
				r.Post("/products", controllers.InventoryCreateProduct(catalogService, logg))
				r.Delete("/products/{productId}", controllers.InventoryDeleteProduct(catalogService, logg))
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequirePermission(access.PermissionReports, logg))
				r.Get("/sales", controllers.SalesReport(reportService, logg))
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequirePermission(access.PermissionUserManagement, logg))
				r.Get("/", controllers.AdminUserList(userService, logg))
				r.Post("/", controllers.AdminUserCreate(userService, logg))
			})
			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequirePermission(access.PermissionAdminReports, logg))
				r.Get("/sales", controllers.SalesReport(reportService, logg))
			})
		})
	})

	return r
}
