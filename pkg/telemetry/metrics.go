package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ghuser/itemsapi"

// Outcome labels for ItemMetrics.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
	OutcomeCacheHit  = "hit"
	OutcomeCacheMiss = "miss"
)

// ItemMetrics counts item operations and cache lookups. The zero value is
// not usable; call NewItemMetrics after Setup.
type ItemMetrics struct {
	ops    metric.Int64Counter
	cache  metric.Int64Counter
	events metric.Int64Counter
}

// NewItemMetrics creates the instruments on the global meter provider.
func NewItemMetrics() (*ItemMetrics, error) {
	return NewItemMetricsFrom(otel.GetMeterProvider())
}

// NewItemMetricsFrom creates the instruments on mp.
func NewItemMetricsFrom(mp metric.MeterProvider) (*ItemMetrics, error) {
	meter := mp.Meter(meterName)

	ops, err := meter.Int64Counter("items_operations_total",
		metric.WithDescription("Item operations by name and outcome"))
	if err != nil {
		return nil, err
	}
	cache, err := meter.Int64Counter("items_cache_lookups_total",
		metric.WithDescription("Item cache lookups by result"))
	if err != nil {
		return nil, err
	}
	events, err := meter.Int64Counter("items_events_processed_total",
		metric.WithDescription("Item lifecycle events handled by the worker"))
	if err != nil {
		return nil, err
	}
	return &ItemMetrics{ops: ops, cache: cache, events: events}, nil
}

// Operation records one item operation. Safe on a nil receiver.
func (m *ItemMetrics) Operation(ctx context.Context, op, outcome string) {
	if m == nil {
		return
	}
	m.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

// CacheLookup records a cache read. Safe on a nil receiver.
func (m *ItemMetrics) CacheLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.cache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// EventProcessed records a handled lifecycle event. Safe on a nil receiver.
func (m *ItemMetrics) EventProcessed(ctx context.Context, topic string) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}
