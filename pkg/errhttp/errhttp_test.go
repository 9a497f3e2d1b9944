package errhttp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/logger"
	itemdomain "github.com/ghuser/itemsapi/services/item/domain"
)

func write(t *testing.T, wr Writer, err error) (*httptest.ResponseRecorder, httpx.ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	wr.Write(w, r, err, "Failed to fetch items")

	var body httpx.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	return w, body
}

func TestWrite_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"ErrItemNotFound", itemdomain.ErrItemNotFound, http.StatusNotFound, "Item not found"},
		{"wrapped ErrItemNotFound", fmt.Errorf("get item: %w", itemdomain.ErrItemNotFound), http.StatusNotFound, "Item not found"},
		{"ErrItemAlreadyExists", itemdomain.ErrItemAlreadyExists, http.StatusConflict, "Item already exists"},
		{"nothing to update", itemdomain.NewNothingToUpdate(), http.StatusBadRequest, "No valid fields to update"},
		{"field error", itemdomain.NewFieldError("title", "Must be a non-empty string"), http.StatusBadRequest, "Validation failed: title"},
		{"wrapped field error", fmt.Errorf("create: %w", itemdomain.NewFieldError("title", "x")), http.StatusBadRequest, "Validation failed: title"},
		{"bare ErrInvalidItem", itemdomain.ErrInvalidItem, http.StatusBadRequest, "invalid item"},
		{"unknown error", errors.New("db down"), http.StatusInternalServerError, "Failed to fetch items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := write(t, Writer{Production: true, Log: logger.Nop()}, tt.err)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if body.Error != tt.wantError {
				t.Fatalf("expected error %q, got %q", tt.wantError, body.Error)
			}
		})
	}
}

func TestWrite_FieldsIncluded(t *testing.T) {
	verr := itemdomain.NewFieldError("title", "Must be a non-empty string")
	verr.Add("completed", "Must be a boolean")

	_, body := write(t, Writer{}, verr)
	if body.Error != "Validation failed: completed, title" {
		t.Fatalf("unexpected summary %q", body.Error)
	}
	if body.Fields["completed"] != "Must be a boolean" || body.Fields["title"] != "Must be a non-empty string" {
		t.Fatalf("unexpected fields %v", body.Fields)
	}
}

func TestWrite_DevelopmentShowsCause(t *testing.T) {
	_, body := write(t, Writer{Production: false, Log: logger.Nop()}, errors.New("connection refused"))
	if body.Error != "Failed to fetch items: connection refused" {
		t.Fatalf("expected cause in development, got %q", body.Error)
	}
}

func TestWrite_LogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info")

	write(t, Writer{Production: true, Log: log}, errors.New("connection refused"))
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected 5xx cause to be logged, got %q", buf.String())
	}

	buf.Reset()
	write(t, Writer{Production: true, Log: log}, itemdomain.ErrItemNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected 404 not to be logged, got %q", buf.String())
	}
}

func TestWrite_ContentType(t *testing.T) {
	w, _ := write(t, Writer{}, itemdomain.ErrItemNotFound)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content type, got %q", ct)
	}
}

func TestWrite_ReportsServerErrorsOnly(t *testing.T) {
	var reported []error
	e := Writer{Log: logger.Nop(), Report: func(_ *http.Request, err error) { reported = append(reported, err) }}

	write(t, e, itemdomain.ErrItemNotFound)
	write(t, e, itemdomain.NewFieldError("title", "Is required"))
	if len(reported) != 0 {
		t.Fatalf("expected 4xx not to be reported, got %v", reported)
	}

	boom := errors.New("connection refused")
	write(t, e, boom)
	if len(reported) != 1 || !errors.Is(reported[0], boom) {
		t.Fatalf("expected the 5xx cause to be reported once, got %v", reported)
	}
}
