package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	pkgcache "github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/logger"
	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
	"github.com/ghuser/itemsapi/services/item/application/subscribers"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	itemEvents "github.com/ghuser/itemsapi/services/item/domain/events"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

const replayTTL = time.Minute

func newRedisItemCache(t *testing.T) (*pkgcache.ItemCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := pkgcache.NewRedisClient(context.Background(), &config.Config{RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return pkgcache.NewItemCache(rc, replayTTL), mr
}

func createdMessage(t *testing.T, item *models.Item) *message.Message {
	t.Helper()
	body, err := json.Marshal(itemEvents.ItemCreatedEvent{
		EventID: uuid.New(),
		Version: itemEvents.EventVersion,
		Item: itemEvents.ItemSnapshot{
			ID:          item.ID,
			Title:       item.Title.String(),
			Description: item.Description.String(),
			Completed:   item.Completed,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		},
		OccurredAt: item.CreatedAt,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), body)
}

func TestCache_LateCreatedEventAfterDelete(t *testing.T) {
	cache, mr := newRedisItemCache(t)
	svc := newTestService(t, cache)
	worker := subscribers.New(cache, nil, logger.Nop())
	ctx := context.Background()

	item, err := svc.Create(ctx, CreateItemCommand{Title: "a", Description: "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, item.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mr.FastForward(2 * replayTTL)
	if err := worker.HandleCreated(ctx, createdMessage(t, item)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if _, err := svc.Get(ctx, item.ID.String()); !errors.Is(err, itemdomain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound after a late event, got %v", err)
	}
}

func TestCache_LateCreatedEventServesCurrentRow(t *testing.T) {
	cache, mr := newRedisItemCache(t)
	svc := newTestService(t, cache)
	worker := subscribers.New(cache, nil, logger.Nop())
	ctx := context.Background()

	item, err := svc.Create(ctx, CreateItemCommand{Title: "a", Description: "b"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Update(ctx, item.ID.String(), UpdateItemCommand{Completed: pkgvalidator.Some(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	tests := []struct {
		name    string
		advance time.Duration
	}{
		{name: "entry still cached", advance: 0},
		{name: "entry expired", advance: 2 * replayTTL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr.FastForward(tt.advance)
			if err := worker.HandleCreated(ctx, createdMessage(t, item)); err != nil {
				t.Fatalf("handle: %v", err)
			}
			got, err := svc.Get(ctx, item.ID.String())
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !got.Completed {
				t.Fatalf("expected the current row, got stale %+v", got)
			}
		})
	}
}
