package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/itemsapi/docs/swagger"
	"github.com/ghuser/itemsapi/migrations/items"
	"github.com/ghuser/itemsapi/pkg/app"
	"github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/events"
	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/migrator"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	itemApi "github.com/ghuser/itemsapi/services/item/application/api"
)

// @title			Items API
// @version		1.0
// @description	CRUD service for todo items.
// @license.name	MIT
// @license.url	https://opensource.org/licenses/MIT
// @BasePath		/api
// @schemes		http https
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

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry: OTel tracing + metrics
	tel, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer tel.Shutdown(context.Background()) //nolint:errcheck

	// Crash reporting: Sentry (optional; log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	metrics, err := telemetry.NewItemMetrics()
	if err != nil {
		log.Error("failed to create item metrics", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}

	db, err := database.Open(ctx, database.OptionsFromConfig(cfg), log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer db.Close() //nolint:errcheck

	if cfg.AutoMigrate {
		if err := migrate(ctx, db, log); err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	appConfig := &app.Application{
		Config:  cfg,
		Db:      db,
		Logger:  log,
		Metrics: metrics,
	}
	checks := httpx.HealthChecks{Database: db}

	// Lifecycle events ride on the PostgreSQL outbox; the embedded store has none.
	if cfg.EventsEnabled && db.Dialect() == database.DialectPostgres {
		eventBus, err := events.New(db.DB(), events.Options{Forwarder: true}, log)
		if err != nil {
			log.Error("failed to setup event bus", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer eventBus.Close() //nolint:errcheck

		if err := eventBus.StartForwarder(ctx); err != nil {
			log.Error("failed to start event forwarder", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		appConfig.EventBus = eventBus
		checks.EventBus = eventBus
	}

	var rateLimiter func(http.Handler) http.Handler
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")

		limiter, err := httpx.NewRedisRateLimiter(redisClient.Client(), cfg.RateLimitPerMinute, time.Minute, tel.Registry, log)
		if err != nil {
			log.Error("failed to create rate limiter", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		rateLimiter = limiter.Handler
		appConfig.Redis = redisClient
		checks.Redis = redisClient
	}

	checks.Stats = func() any {
		s := poolStats{Database: db.Stats()}
		if appConfig.Redis != nil {
			rs := appConfig.Redis.Stats()
			s.Redis = &rs
		}
		return s
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RequestsPerMinute:  cfg.RateLimitPerMinute,
			RateLimiter:        rateLimiter,
		},
		httpx.Middlewares{
			Logger:   logger.Middleware(log),
			Recovery: logger.Recovery(log),
			Sentry:   telemetry.SentryMiddleware(),
			Otel:     otelhttp.NewMiddleware(cfg.ServiceName),
		},
	)

	r.Get("/metrics", tel.MetricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Get("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", httpx.LivenessHandler(cfg.ServiceName))
		r.Get("/ready", httpx.ReadinessHandler(checks))
		registerRoutes(r, appConfig)
	})

	srv := httpx.NewServer(cfg.Addr(), r)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error("server error", "error", err)
	}

	log.Info("shutting down...", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	log.Info("server stopped")
}

// poolStats is the "pool" object of the readiness body.
type poolStats struct {
	Database database.PoolStats `json:"database"`
	Redis    *cache.PoolStats   `json:"redis,omitempty"`
}

// migrate applies the embedded migrations for the connected dialect.
func migrate(ctx context.Context, db *database.Database, log logger.Logger) error {
	files, err := items.FS(db.Dialect())
	if err != nil {
		return err
	}
	m, err := migrator.New(db.DB(), db.Dialect(), files, log)
	if err != nil {
		return err
	}
	return m.Up(ctx)
}

// registerRoutes mounts all service routes under /api.
// Add each new service's route function here.
func registerRoutes(r chi.Router, a *app.Application) {
	itemApi.ItemRoutes(r, a)
}
