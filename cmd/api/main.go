package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/salesdesk-backend/api/routes"
	"github.com/angelmondragon/salesdesk-backend/internal/auth"
	"github.com/angelmondragon/salesdesk-backend/internal/customers"
	"github.com/angelmondragon/salesdesk-backend/internal/documents"
	"github.com/angelmondragon/salesdesk-backend/internal/notifications"
	"github.com/angelmondragon/salesdesk-backend/internal/orders"
	"github.com/angelmondragon/salesdesk-backend/internal/products"
	"github.com/angelmondragon/salesdesk-backend/internal/quotes"
	"github.com/angelmondragon/salesdesk-backend/internal/users"
	"github.com/angelmondragon/salesdesk-backend/pkg/config"
	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/logger"
	"github.com/angelmondragon/salesdesk-backend/pkg/metrics"
	"github.com/angelmondragon/salesdesk-backend/pkg/migrate"
	"github.com/angelmondragon/salesdesk-backend/pkg/redis"
)

const readHeaderTimeout = 10 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var (
		redisClient *redis.Client
		redisStore  routes.RedisStore
	)
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		redisStore = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; product cache, idempotency and login throttling disabled")
	}

	policy, err := cfg.Pricing.Policy()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	pricingMetrics := metrics.NewPricingMetrics(registry)

	userRepo := users.NewRepository(dbClient.DB())
	userService, err := users.NewService(userRepo)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Tx:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	var productCache products.Cache
	if redisClient != nil {
		productCache = redisClient
	}
	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, policy, productCache, cfg.Cache.ProductTTL, logg)
	if err != nil {
		return err
	}

	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		return err
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsWriter, err := notifications.NewWriter(notificationsRepo, logg)
	if err != nil {
		return err
	}
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return err
	}

	quoteService, err := quotes.NewService(quotes.NewRepository(dbClient.DB()), dbClient, productService, notificationsWriter, quotes.Config{
		Policy:   policy,
		Currency: cfg.Pricing.Currency,
		Validity: cfg.Pricing.QuoteValidity(),
		Metrics:  pricingMetrics,
	}, logg)
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, notificationsWriter, logg)
	if err != nil {
		return err
	}

	renderer, err := documents.NewRenderer(documents.Options{
		CompanyName:  cfg.Documents.CompanyName,
		ContactEmail: cfg.Documents.ContactEmail,
		Currency:     cfg.Pricing.Currency,
		Locale:       cfg.Pricing.Locale,
	})
	if err != nil {
		return err
	}
	documentService, err := documents.NewService(quoteService, orderService, renderer, logg)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisStore,
			httpMetrics,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			authService,
			registerService,
			userService,
			productService,
			customerService,
			quoteService,
			orderService,
			notificationsService,
			documentService,
		),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
