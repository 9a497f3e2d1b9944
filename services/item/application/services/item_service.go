package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
	"github.com/ghuser/itemsapi/services/item/domain/repositories"
	domainsvcs "github.com/ghuser/itemsapi/services/item/domain/services"
)

// ItemCache is the read-through cache the service consults for Get.
// Implemented by pkg/cache.ItemCache.
type ItemCache interface {
	Get(ctx context.Context, id uuid.UUID) (*pkgcache.CachedItem, error)
	Store(ctx context.Context, item *pkgcache.CachedItem) (bool, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// CreateItemCommand carries the decoded fields of a create request.
type CreateItemCommand struct {
	Title       string
	Description string
	Completed   bool
}

// UpdateItemCommand carries the fields of an update request as sent.
// Absent fields are left untouched; null or wrongly typed fields are
// validation errors.
type UpdateItemCommand struct {
	Title       pkgvalidator.Optional[string]
	Description pkgvalidator.Optional[string]
	Completed   pkgvalidator.Optional[bool]
}

// ItemService orchestrates the item use cases. Event publishing is handled
// by the repository layer (outbox pattern). Reads are served from Redis
// when a cache is configured; cache failures never fail a request.
type ItemService struct {
	repo    repositories.ItemRepository
	cache   ItemCache
	metrics *telemetry.ItemMetrics
	log     logger.Logger
}

// NewItemService returns an ItemService. cache and metrics may be nil.
func NewItemService(repo repositories.ItemRepository, cache ItemCache, metrics *telemetry.ItemMetrics, log logger.Logger) *ItemService {
	return &ItemService{repo: repo, cache: cache, metrics: metrics, log: log}
}

// List returns every item, newest first.
func (s *ItemService) List(ctx context.Context) (items []*models.Item, err error) {
	defer s.record(ctx, "list", &err)

	items, err = s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Get retrieves an item using a read-through cache:
//  1. Check Redis first; a tombstone answers not found.
//  2. On miss (or cache error), query the database.
//  3. Store the database result unless a newer version is cached.
func (s *ItemService) Get(ctx context.Context, rawID string) (item *models.Item, err error) {
	defer s.record(ctx, "get", &err)

	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		switch {
		case err == nil:
			s.metrics.CacheLookup(ctx, telemetry.OutcomeCacheHit)
			return fromCached(cached), nil
		case errors.Is(err, pkgcache.ErrDeleted):
			s.metrics.CacheLookup(ctx, telemetry.OutcomeCacheHit)
			return nil, itemdomain.ErrItemNotFound
		case errors.Is(err, redis.Nil):
			s.metrics.CacheLookup(ctx, telemetry.OutcomeCacheMiss)
		default:
			s.metrics.CacheLookup(ctx, telemetry.OutcomeError)
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
	}

	item, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	s.storeCached(ctx, item)
	return item, nil
}

// Create validates and persists an Item. The repository publishes ItemCreatedEvent.
func (s *ItemService) Create(ctx context.Context, cmd CreateItemCommand) (item *models.Item, err error) {
	defer s.record(ctx, "create", &err)

	verr := &itemdomain.ValidationError{}
	title, terr := models.NewTitle(cmd.Title)
	mergeFieldErrors(verr, terr)
	description, derr := models.NewDescription(cmd.Description)
	mergeFieldErrors(verr, derr)
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	item = models.NewItem(title, description, cmd.Completed)
	if err := domainsvcs.ValidateItemForCreation(item); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	s.storeCached(ctx, item)
	return item, nil
}

// Update applies the fields present in cmd. A missing item is reported
// before the fields are validated.
func (s *ItemService) Update(ctx context.Context, rawID string, cmd UpdateItemCommand) (item *models.Item, err error) {
	defer s.record(ctx, "update", &err)

	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check item: %w", err)
	}
	if !exists {
		return nil, itemdomain.ErrItemNotFound
	}

	patch, err := buildPatch(cmd)
	if err != nil {
		return nil, err
	}
	if err := domainsvcs.ValidatePatch(patch); err != nil {
		return nil, err
	}

	item, err = s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	s.storeCached(ctx, item)
	return item, nil
}

// Delete removes an item. Returns ErrItemNotFound if no matching item exists.
func (s *ItemService) Delete(ctx context.Context, rawID string) (err error) {
	defer s.record(ctx, "delete", &err)

	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.log.WarnContext(ctx, "item cache invalidate failed", "item_id", id, "error", err)
		}
	}
	return nil
}

// parseID maps an identifier that cannot name an item to ErrItemNotFound.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, itemdomain.ErrItemNotFound
	}
	return id, nil
}

func buildPatch(cmd UpdateItemCommand) (models.ItemPatch, error) {
	var patch models.ItemPatch
	verr := &itemdomain.ValidationError{}

	if cmd.Title.Set {
		if v, ok := cmd.Title.Get(); !ok {
			verr.Add("title", "Must be a non-empty string")
		} else if t, err := models.NewTitle(v); err != nil {
			mergeFieldErrors(verr, err)
		} else {
			patch.Title = &t
		}
	}
	if cmd.Description.Set {
		if v, ok := cmd.Description.Get(); !ok {
			verr.Add("description", "Must be a non-empty string")
		} else if d, err := models.NewDescription(v); err != nil {
			mergeFieldErrors(verr, err)
		} else {
			patch.Description = &d
		}
	}
	if cmd.Completed.Set {
		if v, ok := cmd.Completed.Get(); !ok {
			verr.Add("completed", "Must be a boolean")
		} else {
			patch.Completed = &v
		}
	}

	if len(verr.Fields) > 0 {
		return models.ItemPatch{}, verr
	}
	return patch, nil
}

func mergeFieldErrors(dst *itemdomain.ValidationError, err error) {
	var verr *itemdomain.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for field, msg := range verr.Fields {
		dst.Add(field, msg)
	}
}

func (s *ItemService) storeCached(ctx context.Context, item *models.Item) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Store(ctx, toCached(item)); err != nil {
		s.log.WarnContext(ctx, "item cache write failed", "item_id", item.ID, "error", err)
	}
}

func (s *ItemService) record(ctx context.Context, op string, errp *error) {
	outcome := telemetry.OutcomeOK
	switch err := *errp; {
	case err == nil:
	case errors.Is(err, itemdomain.ErrItemNotFound):
		outcome = telemetry.OutcomeNotFound
	case errors.Is(err, itemdomain.ErrInvalidItem):
		outcome = telemetry.OutcomeInvalid
	default:
		outcome = telemetry.OutcomeError
	}
	s.metrics.Operation(ctx, op, outcome)
}

func toCached(item *models.Item) *pkgcache.CachedItem {
	return &pkgcache.CachedItem{
		ID:          item.ID,
		Title:       item.Title.String(),
		Description: item.Description.String(),
		Completed:   item.Completed,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func fromCached(c *pkgcache.CachedItem) *models.Item {
	return &models.Item{
		ID:          c.ID,
		Title:       models.Title(c.Title),
		Description: models.Description(c.Description),
		Completed:   c.Completed,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}
