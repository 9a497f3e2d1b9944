package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/events"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
	"github.com/ghuser/itemsapi/services/item/infrastructure/persistence/postgres/db"
)

const uniqueViolation = "23505"

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
// Every statement runs on a connection acquired through database.WithConn,
// so a saturated pool fails with database.ErrAcquireTimeout.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewItemRepository returns an ItemRepository. A nil bus disables the
// lifecycle events; otherwise each write publishes its event in the same
// transaction.
func NewItemRepository(database *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: database, bus: bus}
}

// Save inserts item and copies the database-assigned timestamps back onto it.
func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row, err := db.New(tx).InsertItem(ctx, db.InsertItemParams{
			ID:          item.ID,
			Title:       item.Title.String(),
			Description: item.Description.String(),
			Completed:   item.Completed,
		})
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return itemdomain.ErrItemAlreadyExists
			}
			return fmt.Errorf("insert item: %w", err)
		}
		*item = *rowToItem(row)

		if r.bus != nil {
			if err := publishCreated(ctx, r.bus, tx, item); err != nil {
				return fmt.Errorf("publish item created: %w", err)
			}
		}
		return nil
	})
}

// GetByID returns ErrItemNotFound if no row has the given id.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item *models.Item
	err := r.db.WithConn(ctx, func(conn *sql.Conn) error {
		row, err := db.New(conn).GetItemByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return itemdomain.ErrItemNotFound
			}
			return fmt.Errorf("query item: %w", err)
		}
		item = rowToItem(row)
		return nil
	})
	return item, err
}

// List returns all items, newest first.
func (r *ItemRepository) List(ctx context.Context) ([]*models.Item, error) {
	var items []*models.Item
	err := r.db.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := db.New(conn).ListItems(ctx)
		if err != nil {
			return fmt.Errorf("query items: %w", err)
		}
		items = make([]*models.Item, len(rows))
		for i, row := range rows {
			items[i] = rowToItem(row)
		}
		return nil
	})
	return items, err
}

// Update applies patch with a single COALESCE update. The BEFORE UPDATE
// trigger refreshes updated_at.
func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (*models.Item, error) {
	var item *models.Item
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row, err := db.New(tx).UpdateItem(ctx, toUpdateParams(id, patch))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return itemdomain.ErrItemNotFound
			}
			return fmt.Errorf("update item: %w", err)
		}
		item = rowToItem(row)

		if r.bus != nil {
			if err := publishUpdated(ctx, r.bus, tx, item, patch.Fields()); err != nil {
				return fmt.Errorf("publish item updated: %w", err)
			}
		}
		return nil
	})
	return item, err
}

// Delete removes the row. ErrItemNotFound if nothing matched.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		n, err := db.New(tx).DeleteItem(ctx, id)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if n == 0 {
			return itemdomain.ErrItemNotFound
		}

		if r.bus != nil {
			if err := publishDeleted(ctx, r.bus, tx, id); err != nil {
				return fmt.Errorf("publish item deleted: %w", err)
			}
		}
		return nil
	})
}

// Exists reports whether an item with the given ID exists.
func (r *ItemRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		exists, err = db.New(conn).ItemExists(ctx, id)
		if err != nil {
			return fmt.Errorf("check item exists: %w", err)
		}
		return nil
	})
	return exists, err
}

func toUpdateParams(id uuid.UUID, p models.ItemPatch) db.UpdateItemParams {
	params := db.UpdateItemParams{ID: id}
	if p.Title != nil {
		params.Title = sql.NullString{String: p.Title.String(), Valid: true}
	}
	if p.Description != nil {
		params.Description = sql.NullString{String: p.Description.String(), Valid: true}
	}
	if p.Completed != nil {
		params.Completed = sql.NullBool{Bool: *p.Completed, Valid: true}
	}
	return params
}

func rowToItem(row db.Item) *models.Item {
	return &models.Item{
		ID:          row.ID,
		Title:       models.Title(row.Title),
		Description: models.Description(row.Description),
		Completed:   row.Completed,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
