// Package repotest holds the behaviour every ItemRepository implementation
// must share. Store-specific test files call Run with a fresh repository.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
	"github.com/ghuser/itemsapi/services/item/domain/repositories"
)

// Run executes the shared suite. newRepo must return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) repositories.ItemRepository) {
	t.Helper()

	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, newRepo(t)) })
	t.Run("SaveDuplicate", func(t *testing.T) { testSaveDuplicate(t, newRepo(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newRepo(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListNewestFirst(t, newRepo(t)) })
	t.Run("ListEmpty", func(t *testing.T) { testListEmpty(t, newRepo(t)) })
	t.Run("UpdatePartial", func(t *testing.T) { testUpdatePartial(t, newRepo(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("Exists", func(t *testing.T) { testExists(t, newRepo(t)) })
}

func mustItem(t *testing.T, title, description string, completed bool) *models.Item {
	t.Helper()
	ti, err := models.NewTitle(title)
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	d, err := models.NewDescription(description)
	if err != nil {
		t.Fatalf("description: %v", err)
	}
	return models.NewItem(ti, d, completed)
}

func save(t *testing.T, repo repositories.ItemRepository, item *models.Item) {
	t.Helper()
	if err := repo.Save(context.Background(), item); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func testSaveAndGet(t *testing.T, repo repositories.ItemRepository) {
	item := mustItem(t, "Buy milk", "2 liters", false)
	save(t, repo, item)

	got, err := repo.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != item.ID || got.Title != "Buy milk" || got.Description != "2 liters" || got.Completed {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.CreatedAt.Location() != time.UTC || got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamps, got %v / %v", got.CreatedAt.Location(), got.UpdatedAt.Location())
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("updated_at %v before created_at %v", got.UpdatedAt, got.CreatedAt)
	}
}

func testSaveDuplicate(t *testing.T, repo repositories.ItemRepository) {
	item := mustItem(t, "a", "b", false)
	save(t, repo, item)

	dup := mustItem(t, "c", "d", true)
	dup.ID = item.ID
	if err := repo.Save(context.Background(), dup); !errors.Is(err, itemdomain.ErrItemAlreadyExists) {
		t.Fatalf("expected ErrItemAlreadyExists, got %v", err)
	}
}

func testGetMissing(t *testing.T, repo repositories.ItemRepository) {
	_, err := repo.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func testListNewestFirst(t *testing.T, repo repositories.ItemRepository) {
	first := mustItem(t, "first", "1", false)
	save(t, repo, first)
	time.Sleep(2 * time.Millisecond)
	second := mustItem(t, "second", "2", false)
	save(t, repo, second)

	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", items[0].Title, items[1].Title)
	}
}

func testListEmpty(t *testing.T, repo repositories.ItemRepository) {
	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func testUpdatePartial(t *testing.T, repo repositories.ItemRepository) {
	item := mustItem(t, "Buy milk", "2 liters", false)
	save(t, repo, item)
	before, err := repo.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	done := true
	got, err := repo.Update(context.Background(), item.ID, models.ItemPatch{Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Completed {
		t.Fatal("expected completed=true")
	}
	if got.Title != before.Title || got.Description != before.Description {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if !got.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("created_at changed: %v -> %v", before.CreatedAt, got.CreatedAt)
	}
	if !got.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %v -> %v", before.UpdatedAt, got.UpdatedAt)
	}

	title := models.Title("Buy oat milk")
	got, err = repo.Update(context.Background(), item.ID, models.ItemPatch{Title: &title})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got.Title != title || !got.Completed {
		t.Fatalf("expected title change to keep completed, got %+v", got)
	}
}

func testUpdateMissing(t *testing.T, repo repositories.ItemRepository) {
	done := true
	_, err := repo.Update(context.Background(), uuid.New(), models.ItemPatch{Completed: &done})
	if !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func testDelete(t *testing.T, repo repositories.ItemRepository) {
	item := mustItem(t, "a", "b", false)
	save(t, repo, item)

	if err := repo.Delete(context.Background(), item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(context.Background(), item.ID); !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound on second delete, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), item.ID); !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected deleted item to be gone, got %v", err)
	}
}

func testExists(t *testing.T, repo repositories.ItemRepository) {
	item := mustItem(t, "a", "b", false)
	save(t, repo, item)

	ok, err := repo.Exists(context.Background(), item.ID)
	if err != nil || !ok {
		t.Fatalf("expected existing item, got %v, %v", ok, err)
	}
	ok, err = repo.Exists(context.Background(), uuid.New())
	if err != nil || ok {
		t.Fatalf("expected missing item, got %v, %v", ok, err)
	}
}
