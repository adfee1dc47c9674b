package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/medibill/pos-backend/api/routes"
	"github.com/medibill/pos-backend/internal/auth"
	"github.com/medibill/pos-backend/internal/catalog"
	"github.com/medibill/pos-backend/internal/checkout"
	"github.com/medibill/pos-backend/internal/customers"
	"github.com/medibill/pos-backend/internal/payments"
	"github.com/medibill/pos-backend/internal/receipts"
	"github.com/medibill/pos-backend/internal/reports"
	"github.com/medibill/pos-backend/internal/seed"
	"github.com/medibill/pos-backend/internal/users"
	"github.com/medibill/pos-backend/pkg/auth/session"
	"github.com/medibill/pos-backend/pkg/config"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/enums"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/metrics"
	"github.com/medibill/pos-backend/pkg/migrate"
	"github.com/medibill/pos-backend/pkg/redis"
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
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}
	if cfg.FeatureFlags.SeedDemo {
		if _, err := seed.Run(ctx, dbClient.DB(), cfg.Password, logg); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "seed.demo.partial")
		}
	}

	clock := clockwork.NewRealClock()

	var (
		redisClient  *redis.Client
		sessionStore session.Store
		handoff      customers.Handoff
		numberer     checkout.ReceiptNumberer
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		sessionStore = redisClient
		if handoff, err = customers.NewRedisHandoff(redisClient, cfg.POS.HandoffTTL); err != nil {
			return err
		}
		if numberer, err = checkout.NewRedisNumberer(cfg.POS.ReceiptPrefix, redisClient); err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "redis disabled: sessions, handoff and receipt numbers are kept in process")
		sessionStore = session.NewMemoryStore(clock)
		handoff = customers.NewMemoryHandoff(cfg.POS.HandoffTTL, clock)
		numberer = checkout.NewMemoryNumberer(cfg.POS.ReceiptPrefix)
	}

	sessionManager, err := session.NewManager(sessionStore, cfg.JWT.AccessTTL())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Clock:          clock,
	})
	if err != nil {
		return err
	}
	userService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		return err
	}
	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}
	customerService, err := customers.NewService(customers.NewRepository(dbClient.DB()), handoff, clock)
	if err != nil {
		return err
	}
	receiptService, err := receipts.NewService(receipts.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	reportService, err := reports.NewService(reports.NewRepository(dbClient.DB()), clock)
	if err != nil {
		return err
	}

	gatewayOpts := []payments.SimulatedOption{
		payments.WithClock(clock),
		payments.WithDelay(enums.PaymentMethodCard, cfg.POS.CardDelay),
		payments.WithDelay(enums.PaymentMethodMobile, cfg.POS.MobileDelay),
	}
	if ceiling, ok := cfg.POS.DeclineAboveDecimal(); ok {
		gatewayOpts = append(gatewayOpts, payments.WithDecider(payments.DeclineAbove(ceiling)))
	}

	checkoutService, err := checkout.NewService(checkout.ServiceConfig{
		Products:       catalogService,
		Customers:      customerService,
		Handoff:        handoff,
		Gateway:        payments.NewSimulatedGateway(gatewayOpts...),
		Numberer:       numberer,
		Sink:           receiptService,
		Metrics:        checkoutMetrics,
		Logger:         logg,
		Clock:          clock,
		TaxRate:        cfg.POS.TaxRateDecimal(),
		Currency:       cfg.POS.Currency,
		DefaultCashier: cfg.POS.CashierName,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"redis": redisClient != nil,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			reg,
			httpMetrics,
			sessionManager,
			authService,
			catalogService,
			customerService,
			checkoutService,
			receiptService,
			reportService,
			userService,
		),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
