// Package sqlite implements the item repository on the embedded SQLite store.
// Timestamps are stored as unix nanoseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/itemsapi/pkg/database"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// sqliteConstraint is the primary result code shared by UNIQUE and
// PRIMARY KEY violations.
const sqliteConstraint = 19

const itemColumns = `id, title, description, completed, created_at, updated_at`

const (
	insertItem = `INSERT INTO items (` + itemColumns + `)
VALUES (?, ?, ?, ?, ?, ?)`

	getItemByID = `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	listItems = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC, id DESC`

	// updated_at moves forward by at least a microsecond even when the
	// clock has not, so every update is observable.
	updateItem = `UPDATE items
SET title       = COALESCE(?, title),
    description = COALESCE(?, description),
    completed   = COALESCE(?, completed),
    updated_at  = MAX(?, updated_at + 1000)
WHERE id = ?
RETURNING ` + itemColumns

	deleteItem = `DELETE FROM items WHERE id = ?`

	itemExists = `SELECT EXISTS (SELECT 1 FROM items WHERE id = ?)`
)

// ItemRepository implements repositories.ItemRepository on SQLite.
type ItemRepository struct {
	db  *database.Database
	now func() time.Time
}

// NewItemRepository returns a repository over db, which must use the sqlite dialect.
func NewItemRepository(db *database.Database) *ItemRepository {
	return &ItemRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*models.Item, error) {
	var (
		id, title, description string
		completed              bool
		created, updated       int64
	)
	if err := s.Scan(&id, &title, &description, &completed, &created, &updated); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse item id %q: %w", id, err)
	}
	return &models.Item{
		ID:          parsed,
		Title:       models.Title(title),
		Description: models.Description(description),
		Completed:   completed,
		CreatedAt:   time.Unix(0, created).UTC(),
		UpdatedAt:   time.Unix(0, updated).UTC(),
	}, nil
}

func (r *ItemRepository) Save(ctx context.Context, item *models.Item) error {
	return r.db.WithConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, insertItem,
			item.ID.String(),
			item.Title.String(),
			item.Description.String(),
			item.Completed,
			item.CreatedAt.UnixNano(),
			item.UpdatedAt.UnixNano(),
		)
		if err != nil {
			var coded interface{ Code() int }
			if errors.As(err, &coded) && coded.Code()&0xff == sqliteConstraint {
				return itemdomain.ErrItemAlreadyExists
			}
			return fmt.Errorf("insert item: %w", err)
		}
		return nil
	})
}

func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item *models.Item
	err := r.db.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		item, err = scanItem(conn.QueryRowContext(ctx, getItemByID, id.String()))
		if errors.Is(err, sql.ErrNoRows) {
			return itemdomain.ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("query item: %w", err)
		}
		return nil
	})
	return item, err
}

func (r *ItemRepository) List(ctx context.Context) ([]*models.Item, error) {
	items := []*models.Item{}
	err := r.db.WithConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, listItems)
		if err != nil {
			return fmt.Errorf("query items: %w", err)
		}
		defer rows.Close() //nolint:errcheck
		for rows.Next() {
			item, err := scanItem(rows)
			if err != nil {
				return fmt.Errorf("scan item: %w", err)
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ItemRepository) Update(ctx context.Context, id uuid.UUID, patch models.ItemPatch) (*models.Item, error) {
	var title, description sql.NullString
	var completed sql.NullBool
	if patch.Title != nil {
		title = sql.NullString{String: patch.Title.String(), Valid: true}
	}
	if patch.Description != nil {
		description = sql.NullString{String: patch.Description.String(), Valid: true}
	}
	if patch.Completed != nil {
		completed = sql.NullBool{Bool: *patch.Completed, Valid: true}
	}
	now := r.now().UTC().Truncate(time.Microsecond).UnixNano()

	var item *models.Item
	err := r.db.WithConn(ctx, func(conn *sql.Conn) error {
		var err error
		item, err = scanItem(conn.QueryRowContext(ctx, updateItem, title, description, completed, now, id.String()))
		if errors.Is(err, sql.ErrNoRows) {
			return itemdomain.ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	})
	return item, err
}

func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, deleteItem, id.String())
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if n == 0 {
			return itemdomain.ErrItemNotFound
		}
		return nil
	})
}

func (r *ItemRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.WithConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, itemExists, id.String()).Scan(&exists); err != nil {
			return fmt.Errorf("check item exists: %w", err)
		}
		return nil
	})
	return exists, err
}
