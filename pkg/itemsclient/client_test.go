package itemsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_RoundTrip(t *testing.T) {
	var gotUpdate map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]Item{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}})
	})
	mux.HandleFunc("POST /api/items", func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Item{ID: "3", Title: req.Title, Description: req.Description})
	})
	mux.HandleFunc("PUT /api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotUpdate)
		_ = json.NewEncoder(w).Encode(Item{ID: r.PathValue("id"), Completed: true})
	})
	mux.HandleFunc("DELETE /api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL+"/api/", WithHTTPClient(srv.Client()))
	ctx := context.Background()

	items, err := c.List(ctx)
	if err != nil || len(items) != 2 {
		t.Fatalf("list: %v, %v", items, err)
	}

	created, err := c.Create(ctx, CreateRequest{Title: "t", Description: "d"})
	if err != nil || created.ID != "3" || created.Title != "t" {
		t.Fatalf("create: %+v, %v", created, err)
	}

	done := true
	updated, err := c.Update(ctx, "3", UpdateRequest{Completed: &done})
	if err != nil || !updated.Completed {
		t.Fatalf("update: %+v, %v", updated, err)
	}
	if len(gotUpdate) != 1 || gotUpdate["completed"] != true {
		t.Fatalf("expected only completed to be sent, got %v", gotUpdate)
	}

	if err := c.Delete(ctx, "3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Validation failed: title","fields":{"title":"Must be a non-empty string"}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Item not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))

	_, err := c.Get(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = c.Create(context.Background(), CreateRequest{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Fields["title"] == "" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if IsNotFound(err) {
		t.Fatal("400 must not be reported as not found")
	}
}

func TestAPIError_FieldsSorted(t *testing.T) {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Message: "Validation failed: title, description, completed",
		Fields: map[string]string{
			"title":       "Must be a non-empty string",
			"description": "Is required",
			"completed":   "Must be a boolean",
		},
	}
	want := "400: Validation failed: title, description, completed (completed: Must be a boolean; description: Is required; title: Must be a non-empty string)"
	for range 5 {
		if got := err.Error(); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}
