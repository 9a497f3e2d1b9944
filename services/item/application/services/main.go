package services

import (
	"github.com/ghuser/itemsapi/pkg/app"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/services/item/domain/repositories"
	"github.com/ghuser/itemsapi/services/item/infrastructure/persistence/postgres"
	"github.com/ghuser/itemsapi/services/item/infrastructure/persistence/sqlite"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Item *ItemService
}

// New wires all item application services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	var cache ItemCache
	if c := a.ItemCache(); c != nil {
		cache = c
	}
	return &Services{
		Item: NewItemService(NewItemRepository(a), cache, a.Metrics, a.Logger),
	}
}

// NewItemRepository picks the repository matching the database dialect.
// Lifecycle events are only published on PostgreSQL.
func NewItemRepository(a *app.Application) repositories.ItemRepository {
	if a.Db.Dialect() == database.DialectSQLite {
		return sqlite.NewItemRepository(a.Db)
	}
	return postgres.NewItemRepository(a.Db, a.EventBus)
}
