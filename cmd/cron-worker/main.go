package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smartpos/smartpos-backend/internal/cron"
	"github.com/smartpos/smartpos-backend/internal/push"
	"github.com/smartpos/smartpos-backend/internal/subscriptions"
	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/logger"
	"github.com/smartpos/smartpos-backend/pkg/metrics"
	"github.com/smartpos/smartpos-backend/pkg/migrate"
	"github.com/smartpos/smartpos-backend/pkg/redis"
	"github.com/smartpos/smartpos-backend/pkg/webpush"
)

const serviceKind = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	bootCtx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(bootCtx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	must(bootCtx, logg, "config", err)
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	must(bootCtx, logg, "database", err)
	defer dbClient.Close()

	must(bootCtx, logg, "dev migrations", migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient))

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	must(bootCtx, logg, "redis", err)
	defer redisClient.Close()

	lease, err := cron.NewLease(redisClient, redisClient.LockKey(leaseName(cfg.App.Env)), cfg.Cron.LockTTL)
	must(bootCtx, logg, "cron lease", err)

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(dbClient.DB()),
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	must(bootCtx, logg, "subscription service", err)

	expiryJob, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:        logg,
		Subscriptions: subscriptionService,
	})
	must(bootCtx, logg, "expiry job", err)

	scheduler, err := cron.NewScheduler(cron.SchedulerParams{
		Logger:   logg,
		Lease:    lease,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	}, expiryJob)
	must(bootCtx, logg, "scheduler", err)

	if cfg.Push.Enabled() {
		notifier, err := webpush.NewNotifier(cfg.Push)
		must(bootCtx, logg, "webpush notifier", err)
		pushService, err := push.NewService(push.NewRepository(dbClient.DB()), notifier, metrics.NewPushMetrics(prometheus.DefaultRegisterer), logg)
		must(bootCtx, logg, "push service", err)
		reminderJob, err := cron.NewExpiryReminderJob(cron.ExpiryReminderJobParams{
			Logger:        logg,
			Subscriptions: subscriptionService,
			Push:          pushService,
			Marks:         redisClient,
		})
		must(bootCtx, logg, "reminder job", err)
		scheduler.Add(reminderJob)
	} else {
		logg.Warn(bootCtx, "VAPID keys missing, expiry reminders disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"service_kind": cfg.Service.Kind,
		"jobs":         scheduler.Jobs(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker stopped")
}

func leaseName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("%s:%s", serviceKind, env)
}

func must(ctx context.Context, logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("failed to bootstrap %s", what), err)
	os.Exit(1)
}
