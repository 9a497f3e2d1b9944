package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is the core aggregate for this bounded context.
type Item struct {
	ID          uuid.UUID
	Title       Title
	Description Description
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewItem constructs an Item with a generated ID. CreatedAt and UpdatedAt are
// the same instant, truncated to the microsecond precision Postgres keeps.
func NewItem(title Title, description Description, completed bool) *Item {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &Item{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Completed:   completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
