package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ghuser/itemsapi/pkg/itemsclient"
)

// fakeAPI keeps items newest first, like the server.
type fakeAPI struct {
	items   []itemsclient.Item
	seq     int
	listErr error
	updates []itemsclient.UpdateRequest
}

func (f *fakeAPI) List(context.Context) ([]itemsclient.Item, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]itemsclient.Item(nil), f.items...), nil
}

func (f *fakeAPI) Create(_ context.Context, req itemsclient.CreateRequest) (*itemsclient.Item, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, &itemsclient.APIError{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: description",
			Fields:  map[string]string{"description": "Is required"},
		}
	}
	f.seq++
	it := itemsclient.Item{
		ID:          fmt.Sprintf("id-%04d", f.seq),
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed != nil && *req.Completed,
		CreatedAt:   time.Now(),
	}
	f.items = append([]itemsclient.Item{it}, f.items...)
	return &it, nil
}

func (f *fakeAPI) Update(_ context.Context, id string, req itemsclient.UpdateRequest) (*itemsclient.Item, error) {
	f.updates = append(f.updates, req)
	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if req.Title != nil {
			f.items[i].Title = *req.Title
		}
		if req.Description != nil {
			f.items[i].Description = *req.Description
		}
		if req.Completed != nil {
			f.items[i].Completed = *req.Completed
		}
		it := f.items[i]
		return &it, nil
	}
	return nil, &itemsclient.APIError{Status: http.StatusNotFound, Message: "Item not found"}
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &itemsclient.APIError{Status: http.StatusNotFound, Message: "Item not found"}
}

func newRunner(api *fakeAPI) (*runner, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &runner{api: api, out: &out, errOut: &errOut, timeout: time.Second}, &out, &errOut
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no args", nil, 2},
		{"help", []string{"help"}, 0},
		{"unknown", []string{"frobnicate"}, 2},
		{"add without title", []string{"add", "-d", "x"}, 2},
		{"done without ref", []string{"done"}, 2},
		{"rm with two refs", []string{"rm", "1", "2"}, 2},
		{"edit without changes", []string{"edit", "1"}, 2},
		{"edit without ref", []string{"edit", "-t", "x"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newRunner(&fakeAPI{})
			if got := r.Run(tt.args); got != tt.want {
				t.Fatalf("expected exit %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRun_AddListToggleRemove(t *testing.T) {
	api := &fakeAPI{}
	r, out, errOut := newRunner(api)

	if code := r.Run([]string{"add", "-d", "two litres", "Buy", "milk"}); code != 0 {
		t.Fatalf("add: exit %d, stderr %q", code, errOut.String())
	}
	if len(api.items) != 1 || api.items[0].Title != "Buy milk" {
		t.Fatalf("expected one item titled %q, got %+v", "Buy milk", api.items)
	}

	out.Reset()
	if code := r.Run([]string{"ls"}); code != 0 {
		t.Fatalf("ls: exit %d", code)
	}
	if !strings.Contains(out.String(), "Buy milk") || !strings.Contains(out.String(), "two litres") {
		t.Fatalf("ls output missing item: %q", out.String())
	}

	if code := r.Run([]string{"done", "1"}); code != 0 {
		t.Fatalf("done: exit %d, stderr %q", code, errOut.String())
	}
	if !api.items[0].Completed {
		t.Fatal("expected item to be completed")
	}
	last := api.updates[len(api.updates)-1]
	if last.Title != nil || last.Description != nil {
		t.Fatalf("toggle must only send completed, got %+v", last)
	}

	if code := r.Run([]string{"rm", "id-0001"}); code != 0 {
		t.Fatalf("rm: exit %d, stderr %q", code, errOut.String())
	}
	if len(api.items) != 0 {
		t.Fatalf("expected no items, got %+v", api.items)
	}
}

func TestRun_EditSendsOnlyGivenFields(t *testing.T) {
	api := &fakeAPI{items: []itemsclient.Item{{ID: "abc123", Title: "old", Description: "keep"}}}
	r, _, errOut := newRunner(api)

	if code := r.Run([]string{"edit", "-t", "new", "abc"}); code != 0 {
		t.Fatalf("edit: exit %d, stderr %q", code, errOut.String())
	}
	req := api.updates[0]
	if req.Title == nil || *req.Title != "new" {
		t.Fatalf("expected title update, got %+v", req)
	}
	if req.Description != nil || req.Completed != nil {
		t.Fatalf("expected only title to be sent, got %+v", req)
	}
	if api.items[0].Description != "keep" {
		t.Fatalf("description changed: %q", api.items[0].Description)
	}
}

func TestRun_ReportsFieldErrors(t *testing.T) {
	r, _, errOut := newRunner(&fakeAPI{})

	if code := r.Run([]string{"add", "Buy milk"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "description: Is required") {
		t.Fatalf("expected field error in output, got %q", errOut.String())
	}
}

func TestRun_UnresolvableRef(t *testing.T) {
	api := &fakeAPI{items: []itemsclient.Item{{ID: "aa1"}, {ID: "aa2"}}}
	tests := []struct {
		ref  string
		want string
	}{
		{"3", "out of range"},
		{"0", "out of range"},
		{"aa", "ambiguous"},
		{"zz", "no item matches"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			r, _, errOut := newRunner(api)
			if code := r.Run([]string{"rm", tt.ref}); code != 1 {
				t.Fatalf("expected exit 1, got %d", code)
			}
			if !strings.Contains(errOut.String(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, errOut.String())
			}
		})
	}
}

func TestRun_NumericIDPrefix(t *testing.T) {
	api := &fakeAPI{items: []itemsclient.Item{
		{ID: "12345678-aaaa-4aaa-8aaa-aaaaaaaaaaaa", Title: "first"},
		{ID: "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb", Title: "second"},
	}}
	r, out, errOut := newRunner(api)

	if code := r.Run([]string{"rm", "12345678"}); code != 0 {
		t.Fatalf("expected exit 0, got %d (%s)", code, errOut.String())
	}
	if !strings.Contains(out.String(), `removed "first"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
	if len(api.items) != 1 || api.items[0].Title != "second" {
		t.Fatalf("expected only the second item to remain, got %+v", api.items)
	}
}

func TestRun_ListError(t *testing.T) {
	r, _, errOut := newRunner(&fakeAPI{listErr: errors.New("connection refused")})
	if code := r.Run([]string{"ls"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "connection refused") {
		t.Fatalf("expected cause in output, got %q", errOut.String())
	}
}

func TestRun_UI(t *testing.T) {
	r, _, _ := newRunner(&fakeAPI{})
	var called bool
	r.runUI = func(itemsAPI, time.Duration) error {
		called = true
		return nil
	}
	if code := r.Run([]string{"ui"}); code != 0 || !called {
		t.Fatalf("expected ui to run, exit %d called %v", code, called)
	}

	r.runUI = func(itemsAPI, time.Duration) error { return errors.New("no tty") }
	if code := r.Run([]string{"ui"}); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(1, 2, 4); got != "[██░░] 1/2" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := progressBar(0, 0, 4); got != "[░░░░] 0/1" {
		t.Fatalf("unexpected bar %q", got)
	}
}
