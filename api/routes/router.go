package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/salesdesk-backend/api/controllers"
	"github.com/angelmondragon/salesdesk-backend/api/middleware"
	"github.com/angelmondragon/salesdesk-backend/internal/auth"
	"github.com/angelmondragon/salesdesk-backend/internal/customers"
	"github.com/angelmondragon/salesdesk-backend/internal/documents"
	"github.com/angelmondragon/salesdesk-backend/internal/notifications"
	"github.com/angelmondragon/salesdesk-backend/internal/orders"
	"github.com/angelmondragon/salesdesk-backend/internal/products"
	"github.com/angelmondragon/salesdesk-backend/internal/quotes"
	"github.com/angelmondragon/salesdesk-backend/internal/users"
	"github.com/angelmondragon/salesdesk-backend/pkg/config"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
	"github.com/angelmondragon/salesdesk-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/salesdesk-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs. Pass a
// nil interface when redis is not configured; idempotency and login
// throttling are then skipped.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisStore RedisStore,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	authService auth.Service,
	registerService auth.RegisterService,
	userService users.Service,
	productService products.Service,
	customerService customers.Service,
	quoteService quotes.Service,
	orderService orders.Service,
	notificationsService notifications.Service,
	documentService documents.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(httpMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	readiness := map[string]controllers.Pinger{"db": dbP, "redis": nil}
	if redisStore != nil {
		readiness["redis"] = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if cfg.Metrics.Enabled && metricsHandler != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisStore, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		if !cfg.App.IsProd() {
			r.With(middleware.AuthRateLimit(loginPolicy, redisStore, logg)).Post("/bootstrap", controllers.AuthBootstrap(registerService, logg))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisStore, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Get("/auth/me", controllers.AuthMe(userService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/auth/register", controllers.AuthRegister(registerService, logg))
				r.Get("/users", controllers.ListUsers(userService, logg))
				r.Patch("/users/{userId}/active", controllers.SetUserActive(userService, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(productService, logg))
				r.Get("/{productId}", controllers.GetProduct(productService, logg))
				r.Get("/{productId}/price", controllers.ProductPrice(productService, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
					r.Post("/", controllers.CreateProduct(productService, logg))
					r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
					r.Delete("/{productId}", controllers.DeleteProduct(productService, logg))
				})
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", controllers.ListCustomers(customerService, logg))
				r.Post("/", controllers.CreateCustomer(customerService, logg))
				r.Get("/{customerId}", controllers.GetCustomer(customerService, logg))
				r.Patch("/{customerId}", controllers.UpdateCustomer(customerService, logg))
				r.Delete("/{customerId}", controllers.DeleteCustomer(customerService, logg))
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", controllers.ListQuotes(quoteService, logg))
				r.Post("/", controllers.CreateQuote(quoteService, logg))

				r.Route("/{quoteId}", func(r chi.Router) {
					r.Get("/", controllers.GetQuote(quoteService, logg))
					r.Patch("/", controllers.UpdateQuote(quoteService, logg))
					r.Delete("/", controllers.DeleteQuote(quoteService, logg))
					r.Get("/email", controllers.QuoteEmail(documentService, logg))

					r.Post("/items", controllers.AddQuoteItem(quoteService, logg))
					r.Patch("/items/{itemId}", controllers.UpdateQuoteItemQuantity(quoteService, logg))
					r.Delete("/items/{itemId}", controllers.RemoveQuoteItem(quoteService, logg))
					r.Put("/items/{itemId}/manual-price", controllers.SetQuoteItemManualPrice(quoteService, logg))
					r.Delete("/items/{itemId}/manual-price", controllers.ClearQuoteItemManualPrice(quoteService, logg))

					r.Post("/send", controllers.SendQuote(quoteService, logg))
					r.Post("/accept", controllers.AcceptQuote(quoteService, logg))
					r.Post("/reject", controllers.RejectQuote(quoteService, logg))
					r.Post("/expire", controllers.ExpireQuote(quoteService, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(orderService, logg))
				r.Post("/", controllers.CreateOrder(orderService, logg))
				r.Get("/{orderId}", controllers.GetOrder(orderService, logg))
				r.Get("/{orderId}/email", controllers.OrderEmail(documentService, logg))
				r.Post("/{orderId}/status", controllers.UpdateOrderStatus(orderService, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(notificationsService, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			})

			r.Post("/pricing/preview", controllers.PricingPreview(quoteService, logg))
		})
	})

	return r
}
