package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/homeward/settlement-backend/api/controllers"
	"github.com/homeward/settlement-backend/api/routes"
	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/internal/invoices"
	"github.com/homeward/settlement-backend/internal/memberships"
	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/internal/paymentmethods"
	"github.com/homeward/settlement-backend/internal/servicerequests"
	stripewebhook "github.com/homeward/settlement-backend/internal/webhooks/stripe"
	"github.com/homeward/settlement-backend/pkg/config"
	"github.com/homeward/settlement-backend/pkg/db"
	"github.com/homeward/settlement-backend/pkg/env"
	"github.com/homeward/settlement-backend/pkg/logger"
	"github.com/homeward/settlement-backend/pkg/metrics"
	"github.com/homeward/settlement-backend/pkg/migrate"
	"github.com/homeward/settlement-backend/pkg/outbox"
	"github.com/homeward/settlement-backend/pkg/pubsub"
	"github.com/homeward/settlement-backend/pkg/redis"
	"github.com/homeward/settlement-backend/pkg/stripe"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Env:         cfg.App.Env,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	sender, err := notifications.NewPubSubSender(pubsubClient.NotificationPublisher())
	if err != nil {
		return fmt.Errorf("create notification sender: %w", err)
	}
	dispatcher := notifications.NewDispatcher(sender, logg)
	defer dispatcher.Wait()

	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)
	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	billingRepo := billing.NewRepository(dbClient.DB())
	requestsRepo := servicerequests.NewRepository(dbClient.DB())

	var platform *stripe.Client
	if strings.TrimSpace(cfg.Stripe.APIKey) != "" {
		if platform, err = stripe.NewClient(ctx, cfg.Stripe, logg); err != nil {
			return fmt.Errorf("bootstrap stripe: %w", err)
		}
	}
	gateways, err := stripe.NewRegistry(billingRepo, platform)
	if err != nil {
		return fmt.Errorf("create gateway registry: %w", err)
	}

	charger, err := billing.NewCharger(billing.ChargerParams{
		Repo:     billingRepo,
		Gateways: gateways,
		Logger:   logg,
		Metrics:  settlementMetrics,
	})
	if err != nil {
		return fmt.Errorf("create charger: %w", err)
	}

	billingService, err := billing.NewService(billing.ServiceParams{
		Repo:              billingRepo,
		Charger:           charger,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		return fmt.Errorf("create billing service: %w", err)
	}

	invoiceRepo := invoices.NewRepository(dbClient.DB())
	strategyRouter, err := invoices.NewRouter(invoices.RouterParams{
		Invoices:   invoiceRepo,
		Requests:   requestsRepo,
		Billing:    billingRepo,
		Events:     events,
		Charger:    charger,
		AutoCharge: cfg.FeatureFlags.AutoCharge,
		Logger:     logg,
	})
	if err != nil {
		return fmt.Errorf("create strategy router: %w", err)
	}
	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Router:            strategyRouter,
		Invoices:          invoiceRepo,
		Requests:          requestsRepo,
		TransactionRunner: dbClient,
		Dispatcher:        dispatcher,
		Metrics:           settlementMetrics,
		Logger:            logg,
	})
	if err != nil {
		return fmt.Errorf("create invoice service: %w", err)
	}

	paymentMethodService, err := paymentmethods.NewService(paymentmethods.ServiceParams{
		BillingRepo:       billingRepo,
		Owners:            requestsRepo,
		Gateways:          gateways,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		return fmt.Errorf("create payment method service: %w", err)
	}

	membershipService, err := memberships.NewService(memberships.ServiceParams{
		Repo:              memberships.NewRepository(dbClient.DB()),
		Methods:           billingRepo,
		Charger:           charger,
		TransactionRunner: dbClient,
		Logger:            logg,
		BatchSize:         cfg.Membership.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("create membership service: %w", err)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		BillingRepo:       billingRepo,
		Memberships:       membershipService,
		Gateways:          gateways,
		Users:             requestsRepo,
		Events:            events,
		TransactionRunner: dbClient,
		Dispatcher:        dispatcher,
		Metrics:           settlementMetrics,
		Logger:            logg,
	})
	if err != nil {
		return fmt.Errorf("create stripe webhook service: %w", err)
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "stripe-webhook")
	if err != nil {
		return fmt.Errorf("create stripe webhook guard: %w", err)
	}

	handler := routes.NewRouter(cfg, logg, routes.Deps{
		Readiness: []controllers.Dependency{
			{Name: "postgres", Pinger: dbClient},
			{Name: "redis", Pinger: redisClient},
			{Name: "pubsub", Pinger: pubsubClient},
		},
		Idempotency:    redisClient,
		Invoices:       invoiceService,
		Payer:          billingService,
		PaymentMethods: paymentMethodService,
		Webhooks:       webhookService,
		WebhookSecrets: gateways,
		WebhookGuard:   webhookGuard,
		Metrics:        routes.MetricsHandler(),
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"auto_charge": cfg.FeatureFlags.AutoCharge,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}
