package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ghuser/itemsapi/pkg/itemsclient"
)

// listItem adapts itemsclient.Item to bubbles/list.Item.
type listItem struct{ item itemsclient.Item }

func (i listItem) Title() string       { return i.item.Title }
func (i listItem) Description() string { return i.item.Description }
func (i listItem) FilterValue() string { return i.item.Title + " " + i.item.Description }

type itemDelegate struct{}

func (d itemDelegate) Height() int                          { return 1 }
func (d itemDelegate) Spacing() int                         { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box, text := mutedStyle.Render(boxUnchecked), it.item.Title
	if it.item.Completed {
		box, text = successStyle.Render(boxChecked), doneStyle.Render(it.item.Title)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s  %s\n", prefix, box, text, mutedStyle.Render(it.item.Description))
}

type itemsLoadedMsg struct{ items []itemsclient.Item }

type itemSavedMsg struct {
	item    itemsclient.Item
	created bool
}

type itemDeletedMsg struct{ id string }

type apiErrMsg struct{ err error }

type inputMode int

const (
	modeBrowse inputMode = iota
	modeAddTitle
	modeAddDescription
	modeEdit
	modeConfirmDelete
)

type modelTUI struct {
	list    list.Model
	ti      textinput.Model
	api     itemsAPI
	timeout time.Duration

	mode     inputMode
	newTitle string // title captured before the description prompt
	targetID string // item being edited or deleted
	status   string
	errText  string
}

var (
	addBind     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind    = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind  = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteBind  = key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete"))
	refreshBind = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
)

func newModel(api itemsAPI, timeout time.Duration) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = titleStyle.Render("Items")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	extra := func() []key.Binding {
		return []key.Binding{addBind, editBind, toggleBind, deleteBind, refreshBind}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 255

	return modelTUI{list: l, ti: ti, api: api, timeout: timeout}
}

// runInteractiveList starts the Bubble Tea list against the API.
func runInteractiveList(api itemsAPI, timeout time.Duration) error {
	_, err := tea.NewProgram(newModel(api, timeout), tea.WithAltScreen()).Run()
	return err
}

func (m modelTUI) call(fn func(context.Context) tea.Msg) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m modelTUI) loadCmd() tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		items, err := m.api.List(ctx)
		if err != nil {
			return apiErrMsg{err}
		}
		return itemsLoadedMsg{items}
	})
}

func (m modelTUI) createCmd(title, description string) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		it, err := m.api.Create(ctx, itemsclient.CreateRequest{Title: title, Description: description})
		if err != nil {
			return apiErrMsg{err}
		}
		return itemSavedMsg{item: *it, created: true}
	})
}

func (m modelTUI) updateCmd(id string, req itemsclient.UpdateRequest) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		it, err := m.api.Update(ctx, id, req)
		if err != nil {
			return apiErrMsg{err}
		}
		return itemSavedMsg{item: *it}
	})
}

func (m modelTUI) deleteCmd(id string) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		if err := m.api.Delete(ctx, id); err != nil {
			return apiErrMsg{err}
		}
		return itemDeletedMsg{id}
	})
}

func (m modelTUI) Init() tea.Cmd { return m.loadCmd() }

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case itemsLoadedMsg:
		li := make([]list.Item, 0, len(msg.items))
		for _, it := range msg.items {
			li = append(li, listItem{item: it})
		}
		cmd := m.list.SetItems(li)
		m.refreshTitle()
		return m, cmd

	case itemSavedMsg:
		m.errText = ""
		if msg.created {
			cmd := m.list.InsertItem(0, listItem{item: msg.item})
			m.list.Select(0)
			m.status = fmt.Sprintf("added %q", msg.item.Title)
			m.refreshTitle()
			return m, cmd
		}
		if i := m.indexOf(msg.item.ID); i >= 0 {
			cmd := m.list.SetItem(i, listItem{item: msg.item})
			m.status = fmt.Sprintf("saved %q", msg.item.Title)
			m.refreshTitle()
			return m, cmd
		}
		return m, m.loadCmd()

	case itemDeletedMsg:
		m.errText = ""
		if i := m.indexOf(msg.id); i >= 0 {
			m.list.RemoveItem(i)
		}
		m.status = "deleted"
		m.refreshTitle()
		return m, nil

	case apiErrMsg:
		m.status = ""
		m.errText = describeErr(msg.err)
		if itemsclient.IsNotFound(msg.err) {
			return m, m.loadCmd()
		}
		return m, nil
	}

	if m.mode != modeBrowse {
		return m.updateInput(msg)
	}

	if km, isKey := msg.(tea.KeyMsg); isKey && m.list.FilterState() != list.Filtering {
		switch km.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "a":
			m.mode = modeAddTitle
			m.ti.Placeholder = "Title"
			m.ti.SetValue("")
			return m, m.ti.Focus()
		case "e":
			it, found := m.selected()
			if !found {
				return m, nil
			}
			m.mode = modeEdit
			m.targetID = it.item.ID
			m.ti.Placeholder = "Title"
			m.ti.SetValue(it.item.Title)
			return m, m.ti.Focus()
		case " ":
			it, found := m.selected()
			if !found {
				return m, nil
			}
			completed := !it.item.Completed
			return m, m.updateCmd(it.item.ID, itemsclient.UpdateRequest{Completed: &completed})
		case "x":
			it, found := m.selected()
			if !found {
				return m, nil
			}
			m.mode = modeConfirmDelete
			m.targetID = it.item.ID
			m.status = fmt.Sprintf("delete %q? (y/n)", it.item.Title)
			return m, nil
		case "r":
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, isKey := msg.(tea.KeyMsg)

	if m.mode == modeConfirmDelete {
		if !isKey {
			return m, nil
		}
		id := m.targetID
		m.mode, m.targetID, m.status = modeBrowse, "", ""
		if km.String() == "y" {
			return m, m.deleteCmd(id)
		}
		return m, nil
	}

	if isKey {
		switch km.String() {
		case "esc":
			m.resetInput()
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.ti.Value())
			if value == "" {
				m.errText = "Value cannot be empty"
				return m, nil
			}
			m.errText = ""
			switch m.mode {
			case modeAddTitle:
				m.newTitle = value
				m.mode = modeAddDescription
				m.ti.Placeholder = "Description"
				m.ti.SetValue("")
				return m, nil
			case modeAddDescription:
				title := m.newTitle
				m.resetInput()
				return m, m.createCmd(title, value)
			case modeEdit:
				id := m.targetID
				m.resetInput()
				return m, m.updateCmd(id, itemsclient.UpdateRequest{Title: &value})
			}
		}
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *modelTUI) resetInput() {
	m.mode = modeBrowse
	m.newTitle = ""
	m.targetID = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m modelTUI) selected() (listItem, bool) {
	it, found := m.list.SelectedItem().(listItem)
	return it, found
}

func (m modelTUI) indexOf(id string) int {
	for i, it := range m.list.Items() {
		if li, isItem := it.(listItem); isItem && li.item.ID == id {
			return i
		}
	}
	return -1
}

func (m *modelTUI) refreshTitle() {
	var done, pending int
	for _, it := range m.list.Items() {
		if li, isItem := it.(listItem); isItem && li.item.Completed {
			done++
		} else {
			pending++
		}
	}
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		"Items",
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), done+pending,
	)
}

func (m modelTUI) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")

	switch m.mode {
	case modeAddTitle:
		b.WriteString(accentStyle.Render("New item title") + "\n" + m.ti.View())
	case modeAddDescription:
		b.WriteString(accentStyle.Render(fmt.Sprintf("Description for %q", m.newTitle)) + "\n" + m.ti.View())
	case modeEdit:
		b.WriteString(accentStyle.Render("Edit title") + "\n" + m.ti.View())
	}

	if m.status != "" {
		b.WriteString("\n" + pendingStyle.Render(m.status))
	}
	if m.errText != "" {
		b.WriteString("\n" + errorStyle.Render("✖ "+m.errText))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func describeErr(err error) string {
	var apiErr *itemsclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
