package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewItem(t *testing.T) {
	t.Run("generates unique non-zero IDs", func(t *testing.T) {
		a := NewItem("a", "b", false)
		b := NewItem("a", "b", false)
		if a.ID == uuid.Nil {
			t.Fatal("expected non-zero UUID for ID")
		}
		if a.ID == b.ID {
			t.Fatal("expected unique IDs, got identical")
		}
	})

	t.Run("timestamps are equal and recent", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Millisecond)
		item := NewItem("Buy milk", "2 litres", true)
		after := time.Now().UTC()
		if !item.CreatedAt.Equal(item.UpdatedAt) {
			t.Fatalf("expected CreatedAt == UpdatedAt, got %v and %v", item.CreatedAt, item.UpdatedAt)
		}
		if item.CreatedAt.Before(before) || item.CreatedAt.After(after) {
			t.Fatalf("CreatedAt %v not between %v and %v", item.CreatedAt, before, after)
		}
		if item.CreatedAt.Nanosecond()%1000 != 0 {
			t.Fatalf("expected microsecond precision, got %v", item.CreatedAt)
		}
	})

	t.Run("keeps fields", func(t *testing.T) {
		item := NewItem("Buy milk", "2 litres", true)
		if item.Title != "Buy milk" || item.Description != "2 litres" || !item.Completed {
			t.Fatalf("unexpected item: %+v", item)
		}
	})
}

func TestItemPatch(t *testing.T) {
	if !(ItemPatch{}).IsEmpty() {
		t.Fatal("zero patch must be empty")
	}
	done := true
	p := ItemPatch{Completed: &done}
	if p.IsEmpty() {
		t.Fatal("patch with completed must not be empty")
	}
	if got := p.Fields(); len(got) != 1 || got[0] != "completed" {
		t.Fatalf("unexpected fields: %v", got)
	}
}
