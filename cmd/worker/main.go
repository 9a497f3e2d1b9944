package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/events"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	"github.com/ghuser/itemsapi/services/item/application/subscribers"
)

// consumerGroup load-balances item events across worker replicas.
const consumerGroup = "items-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer tel.Shutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	metrics, err := telemetry.NewItemMetrics()
	if err != nil {
		log.Error("failed to create item metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	db, err := database.Open(ctx, database.OptionsFromConfig(cfg), log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer db.Close() //nolint:errcheck

	if !cfg.EventsEnabled || db.Dialect() != database.DialectPostgres {
		log.Error("worker requires EVENTS_ENABLED and a PostgreSQL DATABASE_URL",
			"events_enabled", cfg.EventsEnabled, "dialect", db.Dialect())
		os.Exit(1) //nolint:gocritic
	}

	eventBus, err := events.New(db.DB(), events.Options{ConsumerGroup: consumerGroup}, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	var itemCache subscribers.CacheEvictor
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
		itemCache = cache.NewItemCache(redisClient, cfg.ItemCacheTTL)
	}

	if err := subscribers.New(itemCache, metrics, log).Register(ctx, eventBus); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	<-ctx.Done()

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("shutting down worker...")
}
