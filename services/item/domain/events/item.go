package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics for the item lifecycle.
const (
	TopicItemCreated = "item.created"
	TopicItemUpdated = "item.updated"
	TopicItemDeleted = "item.deleted"
)

// Topics lists every item topic, for subscribers that want them all.
var Topics = []string{TopicItemCreated, TopicItemUpdated, TopicItemDeleted}

// EventVersion is the payload schema version; increment on breaking changes.
const EventVersion = 1

// ItemSnapshot is the item state carried by created/updated events.
type ItemSnapshot struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemCreatedEvent is published in the same transaction that inserts the item.
type ItemCreatedEvent struct {
	EventID    uuid.UUID    `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int          `json:"version"`
	Item       ItemSnapshot `json:"item"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ItemUpdatedEvent carries the row after the update and the fields the
// request changed.
type ItemUpdatedEvent struct {
	EventID    uuid.UUID    `json:"event_id"`
	Version    int          `json:"version"`
	Item       ItemSnapshot `json:"item"`
	Changed    []string     `json:"changed"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// ItemDeletedEvent is published when a row is removed.
type ItemDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uuid.UUID `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
