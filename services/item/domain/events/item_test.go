package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemsapi/services/item/domain/events"
)

func TestTopics(t *testing.T) {
	want := map[string]bool{"item.created": true, "item.updated": true, "item.deleted": true}
	if len(events.Topics) != len(want) {
		t.Fatalf("expected %d topics, got %v", len(want), events.Topics)
	}
	for _, topic := range events.Topics {
		if !want[topic] {
			t.Errorf("unexpected topic %q", topic)
		}
	}
}

func TestItemUpdatedEvent_JSONFieldNames(t *testing.T) {
	now := time.Now().UTC()
	evt := events.ItemUpdatedEvent{
		EventID: uuid.New(),
		Version: events.EventVersion,
		Item: events.ItemSnapshot{
			ID: uuid.New(), Title: "Buy milk", Description: "2 litres", Completed: true,
			CreatedAt: now, UpdatedAt: now,
		},
		Changed:    []string{"completed"},
		OccurredAt: now,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map failed: %v", err)
	}
	for _, field := range []string{"event_id", "version", "item", "changed", "occurred_at"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected JSON field %q not found in: %s", field, data)
		}
	}
	item, _ := raw["item"].(map[string]any)
	for _, field := range []string{"id", "title", "description", "completed", "created_at", "updated_at"} {
		if _, ok := item[field]; !ok {
			t.Errorf("expected item field %q not found in: %s", field, data)
		}
	}
}

func TestItemDeletedEvent_CarriesOnlyID(t *testing.T) {
	data, err := json.Marshal(events.ItemDeletedEvent{EventID: uuid.New(), Version: 1, ItemID: uuid.New()})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	if _, ok := raw["item_id"]; !ok {
		t.Errorf("expected item_id in %s", data)
	}
	if _, ok := raw["item"]; ok {
		t.Errorf("deleted event must not carry a snapshot: %s", data)
	}
}
