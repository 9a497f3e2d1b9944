package app

import (
	"github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/events"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/telemetry"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to all service Routes calls during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context methods
// and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "processing item", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
//
// EventBus, Redis and Metrics are optional and nil when disabled.
type Application struct {
	Config   *config.Config
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient
	Metrics  *telemetry.ItemMetrics
}

// ItemCache returns the item cache, or nil when Redis is disabled.
func (a *Application) ItemCache() *cache.ItemCache {
	if a.Redis == nil {
		return nil
	}
	ttl := cache.DefaultItemCacheTTL
	if a.Config != nil {
		ttl = a.Config.ItemCacheTTL
	}
	return cache.NewItemCache(a.Redis, ttl)
}

// IsProduction reports whether client-facing errors must hide internals.
func (a *Application) IsProduction() bool {
	return a.Config != nil && a.Config.IsProduction()
}
