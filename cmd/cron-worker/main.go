package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hopefultail/hopeful-tail-backend/internal/adoptions"
	"github.com/hopefultail/hopeful-tail-backend/internal/cartpets"
	"github.com/hopefultail/hopeful-tail-backend/internal/cron"
	"github.com/hopefultail/hopeful-tail-backend/internal/funds"
	"github.com/hopefultail/hopeful-tail-backend/internal/invoices"
	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/internal/pets"
	"github.com/hopefultail/hopeful-tail-backend/internal/webhooks"
	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/metrics"
	"github.com/hopefultail/hopeful-tail-backend/pkg/migrate"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
	"github.com/hopefultail/hopeful-tail-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	adoptionsService, err := adoptions.NewService(adoptions.ServiceParams{
		Repo:     adoptions.NewRepository(dbClient.DB()),
		CartPets: cartpets.NewRepository(dbClient.DB()),
		Pets:     pets.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create adoptions service", err)
		os.Exit(1)
	}
	countDay, err := cron.NewCountDayJob(adoptionsService, cronMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create count-day job", err)
		os.Exit(1)
	}
	jobs := []cron.Job{countDay}

	payosClient, err := payos.NewClient(cfg.PayOS)
	if err != nil {
		logg.Warn(context.Background(), "payos not configured, stale payment polling disabled")
	} else {
		invoicesRepo := invoices.NewRepository(dbClient.DB())
		fundsRepo := funds.NewRepository(dbClient.DB())
		guard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, webhooks.DefaultScope)
		if err != nil {
			logg.Error(context.Background(), "failed to create webhook guard", err)
			os.Exit(1)
		}
		reconciler, err := payments.NewReconciler(payments.ReconcilerParams{
			DB:       dbClient,
			Events:   payments.NewEventRepository(dbClient.DB()),
			Settlers: []payments.Settler{invoices.NewSettler(invoicesRepo), funds.NewSettler(fundsRepo)},
			Guard:    guard,
			Metrics:  paymentMetrics,
			Logger:   logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create reconciler", err)
			os.Exit(1)
		}
		stale, err := cron.NewStalePaymentJob(cron.StalePaymentJobParams{
			Invoices:   invoicesRepo,
			Funds:      fundsRepo,
			Links:      payosClient,
			Reconciler: reconciler,
			Metrics:    cronMetrics,
			Logger:     logg,
			StaleAfter: cfg.Cron.StalePaymentAfter,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create stale payment job", err)
			os.Exit(1)
		}
		jobs = append(jobs, stale)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cron.LockName), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(jobs...)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        len(jobs),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
