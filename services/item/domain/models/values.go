package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
)

// MaxTitleLength is the column width of items.title, in characters.
const MaxTitleLength = 255

// Title is a trimmed, non-empty item title of at most MaxTitleLength characters.
type Title string

// NewTitle trims s and enforces the title constraints.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", itemdomain.NewFieldError("title", "Must be a non-empty string")
	}
	if utf8.RuneCountInString(s) > MaxTitleLength {
		return "", itemdomain.NewFieldError("title", fmt.Sprintf("Must be at most %d characters", MaxTitleLength))
	}
	return Title(s), nil
}

func (t Title) String() string {
	return string(t)
}

// Description is a trimmed, non-empty item description.
type Description string

// NewDescription trims s and rejects a blank result.
func NewDescription(s string) (Description, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", itemdomain.NewFieldError("description", "Must be a non-empty string")
	}
	return Description(s), nil
}

func (d Description) String() string {
	return string(d)
}
