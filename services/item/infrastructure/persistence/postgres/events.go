package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemsapi/pkg/events"
	domainevents "github.com/ghuser/itemsapi/services/item/domain/events"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

func snapshot(item *models.Item) domainevents.ItemSnapshot {
	return domainevents.ItemSnapshot{
		ID:          item.ID,
		Title:       item.Title.String(),
		Description: item.Description.String(),
		Completed:   item.Completed,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func publishCreated(ctx context.Context, bus *events.EventBus, tx *sql.Tx, item *models.Item) error {
	evt := domainevents.ItemCreatedEvent{
		EventID:    uuid.New(),
		Version:    domainevents.EventVersion,
		Item:       snapshot(item),
		OccurredAt: item.CreatedAt,
	}
	return publish(ctx, bus, tx, domainevents.TopicItemCreated, evt.EventID, evt)
}

func publishUpdated(ctx context.Context, bus *events.EventBus, tx *sql.Tx, item *models.Item, changed []string) error {
	evt := domainevents.ItemUpdatedEvent{
		EventID:    uuid.New(),
		Version:    domainevents.EventVersion,
		Item:       snapshot(item),
		Changed:    changed,
		OccurredAt: item.UpdatedAt,
	}
	return publish(ctx, bus, tx, domainevents.TopicItemUpdated, evt.EventID, evt)
}

func publishDeleted(ctx context.Context, bus *events.EventBus, tx *sql.Tx, id uuid.UUID) error {
	evt := domainevents.ItemDeletedEvent{
		EventID:    uuid.New(),
		Version:    domainevents.EventVersion,
		ItemID:     id,
		OccurredAt: time.Now().UTC(),
	}
	return publish(ctx, bus, tx, domainevents.TopicItemDeleted, evt.EventID, evt)
}

func publish(ctx context.Context, bus *events.EventBus, tx *sql.Tx, topic string, eventID uuid.UUID, payload any) error {
	msg, err := events.NewMessage(ctx, eventID.String(), domainevents.EventVersion, payload)
	if err != nil {
		return err
	}
	return bus.PublishTx(ctx, tx, topic, msg)
}
