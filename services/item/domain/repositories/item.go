package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
type ItemRepository interface {
	// Save inserts item and refreshes its timestamps from the store.
	Save(ctx context.Context, item *models.Item) error

	// GetByID returns ErrItemNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// List returns every item, newest first.
	List(ctx context.Context) ([]*models.Item, error)

	// Update applies the present slots of patch in one statement, refreshes
	// updated_at and returns the stored row. ErrItemNotFound if id is gone.
	Update(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (*models.Item, error)

	// Delete removes an item permanently. ErrItemNotFound if nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error

	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
