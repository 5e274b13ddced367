package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/internal/cron"
	"github.com/homeward/settlement-backend/internal/memberships"
	"github.com/homeward/settlement-backend/pkg/config"
	"github.com/homeward/settlement-backend/pkg/db"
	"github.com/homeward/settlement-backend/pkg/logger"
	"github.com/homeward/settlement-backend/pkg/metrics"
	"github.com/homeward/settlement-backend/pkg/migrate"
	"github.com/homeward/settlement-backend/pkg/outbox"
	"github.com/homeward/settlement-backend/pkg/redis"
	"github.com/homeward/settlement-backend/pkg/stripe"
)

const serviceName = "cron-worker"

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
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
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

	registry, err := buildJobs(ctx, cfg, logg, dbClient)
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.Cron.LockKey, lockEnv(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("create cron lock: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

func buildJobs(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	registry := cron.NewRegistry()

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outbox.NewRepository(dbClient.DB()),
		Retention:   cfg.Outbox.Retention,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("create outbox retention job: %w", err)
	}
	if err := registry.Register(retention); err != nil {
		return nil, err
	}

	billingRepo := billing.NewRepository(dbClient.DB())
	var platform *stripe.Client
	if strings.TrimSpace(cfg.Stripe.APIKey) != "" {
		if platform, err = stripe.NewClient(ctx, cfg.Stripe, logg); err != nil {
			return nil, fmt.Errorf("bootstrap stripe: %w", err)
		}
	}
	gateways, err := stripe.NewRegistry(billingRepo, platform)
	if err != nil {
		return nil, fmt.Errorf("create gateway registry: %w", err)
	}
	charger, err := billing.NewCharger(billing.ChargerParams{
		Repo:     billingRepo,
		Gateways: gateways,
		Logger:   logg,
		Metrics:  metrics.NewSettlementMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return nil, fmt.Errorf("create charger: %w", err)
	}
	membershipSvc, err := memberships.NewService(memberships.ServiceParams{
		Repo:              memberships.NewRepository(dbClient.DB()),
		Methods:           billingRepo,
		Charger:           charger,
		TransactionRunner: dbClient,
		Logger:            logg,
		BatchSize:         cfg.Membership.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create membership service: %w", err)
	}
	payments, err := cron.NewMembershipPaymentJob(cron.MembershipPaymentJobParams{
		Logger:      logg,
		Memberships: membershipSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("create membership payment job: %w", err)
	}
	if err := registry.Register(payments); err != nil {
		return nil, err
	}
	return registry, nil
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
