// Package subscribers consumes item lifecycle events in the worker process.
// Every handler is idempotent: the bus redelivers on failure.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/itemsapi/pkg/events"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	itemEvents "github.com/ghuser/itemsapi/services/item/domain/events"
)

// CacheEvictor is the part of the item cache the worker keeps in sync.
// Event snapshots are never written back: the API refills entries from the
// database, so a late event cannot resurrect a deleted item.
type CacheEvictor interface {
	Evict(ctx context.Context, id uuid.UUID) (bool, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// Subscriber is the bus surface Register needs.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler events.Handler) (<-chan error, error)
}

// ItemSubscribers writes an audit line per event and, when a cache is
// configured, drops the affected entry.
type ItemSubscribers struct {
	cache   CacheEvictor
	metrics *telemetry.ItemMetrics
	log     logger.Logger
}

// New returns ItemSubscribers. cache and metrics may be nil.
func New(cache CacheEvictor, metrics *telemetry.ItemMetrics, log logger.Logger) *ItemSubscribers {
	return &ItemSubscribers{cache: cache, metrics: metrics, log: log}
}

// Register subscribes to every item topic. Subscriber errors are drained
// into the log until ctx ends.
func (s *ItemSubscribers) Register(ctx context.Context, bus Subscriber) error {
	handlers := map[string]events.Handler{
		itemEvents.TopicItemCreated: s.HandleCreated,
		itemEvents.TopicItemUpdated: s.HandleUpdated,
		itemEvents.TopicItemDeleted: s.HandleDeleted,
	}
	for _, topic := range itemEvents.Topics {
		errCh, err := bus.Subscribe(ctx, topic, handlers[topic])
		if err != nil {
			return err
		}
		go func() {
			for err := range errCh {
				s.log.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}()
	}
	s.log.Info("event subscribers registered", "topics", itemEvents.Topics)
	return nil
}

// HandleCreated handles item.created.
func (s *ItemSubscribers) HandleCreated(ctx context.Context, msg *message.Message) error {
	var evt itemEvents.ItemCreatedEvent
	if err := decode(msg, &evt); err != nil {
		return err
	}
	s.audit(ctx, itemEvents.TopicItemCreated, evt.EventID, evt.Item.ID, "title", evt.Item.Title)
	s.evict(ctx, evt.Item.ID)
	return nil
}

// HandleUpdated handles item.updated.
func (s *ItemSubscribers) HandleUpdated(ctx context.Context, msg *message.Message) error {
	var evt itemEvents.ItemUpdatedEvent
	if err := decode(msg, &evt); err != nil {
		return err
	}
	s.audit(ctx, itemEvents.TopicItemUpdated, evt.EventID, evt.Item.ID, "changed", evt.Changed)
	s.evict(ctx, evt.Item.ID)
	return nil
}

// HandleDeleted handles item.deleted.
func (s *ItemSubscribers) HandleDeleted(ctx context.Context, msg *message.Message) error {
	var evt itemEvents.ItemDeletedEvent
	if err := decode(msg, &evt); err != nil {
		return err
	}
	s.audit(ctx, itemEvents.TopicItemDeleted, evt.EventID, evt.ItemID)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, evt.ItemID); err != nil {
			// Cache sync is best-effort; log but do not fail the handler.
			s.log.WarnContext(ctx, "cache invalidate failed", "item_id", evt.ItemID, "error", err)
		}
	}
	return nil
}

func (s *ItemSubscribers) audit(ctx context.Context, topic string, eventID, itemID uuid.UUID, args ...any) {
	s.metrics.EventProcessed(ctx, topic)
	s.log.InfoContext(ctx, "item audit",
		append([]any{"topic", topic, "event_id", eventID, "item_id", itemID}, args...)...)
}

func (s *ItemSubscribers) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	evicted, err := s.cache.Evict(ctx, id)
	if err != nil {
		s.log.WarnContext(ctx, "cache evict failed", "item_id", id, "error", err)
		return
	}
	s.log.DebugContext(ctx, "cache evicted", "item_id", id, "evicted", evicted)
}

// decode rejects payloads from a newer schema version so they surface on
// the error channel instead of being half-applied.
func decode(msg *message.Message, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", msg.UUID, err)
	}
	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(msg.Payload, &header); err != nil {
		return fmt.Errorf("decode %s: %w", msg.UUID, err)
	}
	if header.Version > itemEvents.EventVersion {
		return fmt.Errorf("decode %s: unsupported event version %d", msg.UUID, header.Version)
	}
	return nil
}
