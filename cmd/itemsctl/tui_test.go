package main

import (
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ghuser/itemsapi/pkg/itemsclient"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m modelTUI, msg tea.Msg) (modelTUI, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(modelTUI)
	if !ok {
		t.Fatalf("expected modelTUI, got %T", next)
	}
	return mm, cmd
}

// complete runs an API command and feeds its result back into the model.
func complete(t *testing.T, m modelTUI, cmd tea.Cmd) modelTUI {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m, _ = update(t, m, cmd())
	return m
}

func loadedModel(t *testing.T, api *fakeAPI) modelTUI {
	t.Helper()
	m := newModel(api, time.Second)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	return complete(t, m, m.Init())
}

func titles(m modelTUI) []string {
	var out []string
	for _, it := range m.list.Items() {
		out = append(out, it.(listItem).item.Title)
	}
	return out
}

func TestTUI_LoadAndToggle(t *testing.T) {
	api := &fakeAPI{items: []itemsclient.Item{{ID: "a", Title: "first"}, {ID: "b", Title: "second"}}}
	m := loadedModel(t, api)

	if got := titles(m); len(got) != 2 || got[0] != "first" {
		t.Fatalf("unexpected items %v", got)
	}

	m, cmd := update(t, m, keyMsg(" "))
	m = complete(t, m, cmd)

	if !api.items[0].Completed {
		t.Fatal("expected API item to be completed")
	}
	if !m.list.Items()[0].(listItem).item.Completed {
		t.Fatal("expected list item to be completed")
	}
}

func TestTUI_AddPromptsTitleThenDescription(t *testing.T) {
	api := &fakeAPI{}
	m := loadedModel(t, api)

	m, _ = update(t, m, keyMsg("a"))
	if m.mode != modeAddTitle {
		t.Fatalf("expected title prompt, got mode %d", m.mode)
	}

	m, _ = update(t, m, keyMsg("enter"))
	if m.errText == "" || m.mode != modeAddTitle {
		t.Fatal("empty title must be rejected in place")
	}

	m.ti.SetValue("  Buy milk ")
	m, cmd := update(t, m, keyMsg("enter"))
	if cmd != nil || m.mode != modeAddDescription {
		t.Fatalf("expected description prompt, got mode %d", m.mode)
	}

	m.ti.SetValue("two litres")
	m, cmd = update(t, m, keyMsg("enter"))
	m = complete(t, m, cmd)

	if m.mode != modeBrowse {
		t.Fatalf("expected browse mode, got %d", m.mode)
	}
	if got := titles(m); len(got) != 1 || got[0] != "Buy milk" {
		t.Fatalf("unexpected items %v", got)
	}
	if api.items[0].Description != "two litres" {
		t.Fatalf("unexpected description %q", api.items[0].Description)
	}
}

func TestTUI_EscCancelsAdd(t *testing.T) {
	m := loadedModel(t, &fakeAPI{})
	m, _ = update(t, m, keyMsg("a"))
	m.ti.SetValue("draft")
	m, _ = update(t, m, keyMsg("esc"))
	if m.mode != modeBrowse || m.ti.Value() != "" {
		t.Fatalf("expected input reset, mode %d value %q", m.mode, m.ti.Value())
	}
}

func TestTUI_EditSendsTitleOnly(t *testing.T) {
	api := &fakeAPI{items: []itemsclient.Item{{ID: "a", Title: "old", Description: "d"}}}
	m := loadedModel(t, api)

	m, _ = update(t, m, keyMsg("e"))
	if m.ti.Value() != "old" {
		t.Fatalf("expected input prefilled with title, got %q", m.ti.Value())
	}
	m.ti.SetValue("new")
	m, cmd := update(t, m, keyMsg("enter"))
	m = complete(t, m, cmd)

	req := api.updates[0]
	if req.Title == nil || *req.Title != "new" || req.Description != nil || req.Completed != nil {
		t.Fatalf("unexpected update %+v", req)
	}
	if got := titles(m); got[0] != "new" {
		t.Fatalf("list not updated: %v", got)
	}
}

func TestTUI_DeleteNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{items: []itemsclient.Item{{ID: "a", Title: "one"}, {ID: "b", Title: "two"}}}
	m := loadedModel(t, api)

	m, _ = update(t, m, keyMsg("x"))
	m, cmd := update(t, m, keyMsg("n"))
	if cmd != nil || len(api.items) != 2 || m.mode != modeBrowse {
		t.Fatal("declined delete must not call the API")
	}

	m, _ = update(t, m, keyMsg("x"))
	m, cmd = update(t, m, keyMsg("y"))
	m = complete(t, m, cmd)

	if len(api.items) != 1 {
		t.Fatalf("expected one item left in API, got %d", len(api.items))
	}
	if got := titles(m); len(got) != 1 || got[0] != "two" {
		t.Fatalf("unexpected items %v", got)
	}
}

func TestTUI_NotFoundReloads(t *testing.T) {
	api := &fakeAPI{items: []itemsclient.Item{{ID: "a", Title: "one"}}}
	m := loadedModel(t, api)

	api.items = nil
	m, cmd := update(t, m, apiErrMsg{&itemsclient.APIError{Status: http.StatusNotFound, Message: "Item not found"}})
	if m.errText != "Item not found" {
		t.Fatalf("unexpected error text %q", m.errText)
	}
	m = complete(t, m, cmd)
	if len(m.list.Items()) != 0 {
		t.Fatalf("expected reload to clear the list, got %v", titles(m))
	}
}

func TestTUI_Quit(t *testing.T) {
	m := loadedModel(t, &fakeAPI{})
	_, cmd := update(t, m, keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
