package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrItemNotFound, "item not found"},
		{ErrItemAlreadyExists, "item already exists"},
		{ErrInvalidItem, "invalid item"},
		{ErrNothingToUpdate, "no valid fields to update"},
		{NewNothingToUpdate(), "invalid item: no valid fields to update"},
	}
	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("got %q, want %q", tt.err.Error(), tt.want)
		}
	}
}

func TestValidationError_UnwrapsToInvalidItem(t *testing.T) {
	err := fmt.Errorf("update item: %w", NewFieldError("title", "Must be a non-empty string"))
	if !errors.Is(err, ErrInvalidItem) {
		t.Fatal("errors.Is must match ErrInvalidItem through a ValidationError")
	}
	nothing := fmt.Errorf("update item: %w", NewNothingToUpdate())
	if !errors.Is(nothing, ErrNothingToUpdate) || !errors.Is(nothing, ErrInvalidItem) {
		t.Fatal("nothing-to-update must match ErrNothingToUpdate and ErrInvalidItem")
	}
	if errors.Is(NewFieldError("title", "x"), ErrNothingToUpdate) {
		t.Fatal("a field error must not match ErrNothingToUpdate")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("errors.As must find the ValidationError")
	}
	if ve.Fields["title"] != "Must be a non-empty string" {
		t.Errorf("unexpected fields: %v", ve.Fields)
	}
}

func TestValidationError_SummaryAndError(t *testing.T) {
	ve := NewFieldError("title", "Must be a non-empty string")
	ve.Add("completed", "Must be a boolean")

	if got, want := ve.Summary(), "Validation failed: completed, title"; got != want {
		t.Errorf("Summary: got %q, want %q", got, want)
	}
	if got, want := ve.Error(), "invalid item: completed: Must be a boolean; title: Must be a non-empty string"; got != want {
		t.Errorf("Error: got %q, want %q", got, want)
	}
	if got := NewNothingToUpdate().Summary(); got != "No valid fields to update" {
		t.Errorf("nothing-to-update summary: got %q", got)
	}
}

func TestWrappedNotFoundIdentity(t *testing.T) {
	wrapped := fmt.Errorf("get item: %w", ErrItemNotFound)
	if !errors.Is(wrapped, ErrItemNotFound) {
		t.Fatal("errors.Is must match wrapped ErrItemNotFound")
	}
	if errors.Is(wrapped, ErrInvalidItem) {
		t.Fatal("not found must not be mistaken for invalid input")
	}
}

func TestNewNothingToUpdate_NotShared(t *testing.T) {
	first := NewNothingToUpdate()
	first.Add("title", "Must be a non-empty string")

	second := NewNothingToUpdate()
	if len(second.Fields) != 0 {
		t.Fatalf("expected a fresh error, got fields %v", second.Fields)
	}
	if got := second.Summary(); got != "No valid fields to update" {
		t.Fatalf("unexpected summary %q", got)
	}
}
