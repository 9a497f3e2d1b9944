package handlers

import (
	"time"

	"github.com/google/uuid"

	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
	"github.com/ghuser/itemsapi/services/item/domain/models"
)

// ItemResponse is the JSON representation of an item.
type ItemResponse struct {
	ID          uuid.UUID `json:"id"          example:"123e4567-e89b-12d3-a456-426614174000"`
	Title       string    `json:"title"       example:"Buy milk"`
	Description string    `json:"description" example:"2 liters, semi-skimmed"`
	Completed   bool      `json:"completed"   example:"false"`
	CreatedAt   time.Time `json:"created_at"  example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at"  example:"2024-01-15T10:30:00Z"`
} // @name Item

// CreateItemRequest is the request body for POST /items. The title length
// is checked by the domain after trimming.
type CreateItemRequest struct {
	Title       *string `json:"title"       validate:"required,notblank" example:"Buy milk"`
	Description *string `json:"description" validate:"required,notblank" example:"2 liters, semi-skimmed"`
	Completed   *bool   `json:"completed"                                example:"false"`
} // @name CreateItemRequest

// UpdateItemRequest is the request body for PUT /items/{id}. Every field is
// optional; at least one must be present.
type UpdateItemRequest struct {
	Title       pkgvalidator.Optional[string] `json:"title,omitzero"       swaggertype:"string"  example:"Buy oat milk"`
	Description pkgvalidator.Optional[string] `json:"description,omitzero" swaggertype:"string"  example:"1 liter"`
	Completed   pkgvalidator.Optional[bool]   `json:"completed,omitzero"   swaggertype:"boolean" example:"true"`
} // @name UpdateItemRequest

func toItemResponse(item *models.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		Title:       item.Title.String(),
		Description: item.Description.String(),
		Completed:   item.Completed,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
