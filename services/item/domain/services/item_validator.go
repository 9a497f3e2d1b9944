// Package services contains stateless domain services for the item bounded context.
// Domain services enforce business rules that operate purely on domain types
// and have zero external dependencies beyond stdlib and the domain layer.
package services

import (
	"fmt"

	"github.com/google/uuid"

	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// ValidateItemForCreation checks an Item built by models.NewItem before it
// is persisted. Title and description are re-checked because the zero value
// of either bypasses its constructor.
func ValidateItemForCreation(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if item.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}
	if item.UpdatedAt.Before(item.CreatedAt) {
		return fmt.Errorf("updated_at must not precede created_at")
	}

	verr := &itemdomain.ValidationError{}
	if _, err := models.NewTitle(item.Title.String()); err != nil {
		verr.Add("title", "Is required and must be a non-empty string")
	}
	if _, err := models.NewDescription(item.Description.String()); err != nil {
		verr.Add("description", "Is required and must be a non-empty string")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// ValidatePatch rejects a patch that would change nothing.
func ValidatePatch(p models.ItemPatch) error {
	if p.IsEmpty() {
		return itemdomain.NewNothingToUpdate()
	}
	return nil
}
