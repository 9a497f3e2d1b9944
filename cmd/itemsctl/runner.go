package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ghuser/itemsapi/pkg/itemsclient"
)

// itemsAPI is the slice of itemsclient.Client the commands use.
type itemsAPI interface {
	List(ctx context.Context) ([]itemsclient.Item, error)
	Create(ctx context.Context, req itemsclient.CreateRequest) (*itemsclient.Item, error)
	Update(ctx context.Context, id string, req itemsclient.UpdateRequest) (*itemsclient.Item, error)
	Delete(ctx context.Context, id string) error
}

type runner struct {
	api     itemsAPI
	out     io.Writer
	errOut  io.Writer
	timeout time.Duration

	// runUI starts the interactive list; replaced in tests.
	runUI func(api itemsAPI, timeout time.Duration) error
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func (r *runner) Run(args []string) int {
	if len(args) == 0 {
		printHelp(r.errOut)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		printHelp(r.out)
		return 0

	case "ls":
		return r.doList()

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		desc := fs.String("d", "", "description")
		done := fs.Bool("done", false, "create as completed")
		if err := fs.Parse(a); err != nil || fs.NArg() == 0 {
			fail(r.errOut, "usage: itemsctl add -d <description> [-done] <title...>")
			return 2
		}
		req := itemsclient.CreateRequest{Title: strings.Join(fs.Args(), " "), Description: *desc}
		if *done {
			req.Completed = done
		}
		return r.doAdd(req)

	case "done":
		if len(a) != 1 {
			fail(r.errOut, "usage: itemsctl done <index|id>")
			return 2
		}
		return r.doToggle(a[0])

	case "rm":
		if len(a) != 1 {
			fail(r.errOut, "usage: itemsctl rm <index|id>")
			return 2
		}
		return r.doRemove(a[0])

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		title := fs.String("t", "", "new title")
		desc := fs.String("d", "", "new description")
		if err := fs.Parse(a); err != nil || fs.NArg() != 1 {
			fail(r.errOut, "usage: itemsctl edit [-t <title>] [-d <description>] <index|id>")
			return 2
		}
		var req itemsclient.UpdateRequest
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "t":
				req.Title = title
			case "d":
				req.Description = desc
			}
		})
		if req.Title == nil && req.Description == nil {
			fail(r.errOut, "edit: nothing to change, pass -t and/or -d")
			return 2
		}
		return r.doEdit(fs.Arg(0), req)

	case "ui":
		run := r.runUI
		if run == nil {
			run = runInteractiveList
		}
		if err := run(r.api, r.timeout); err != nil {
			r.reportErr(err)
			return 1
		}
		return 0
	}

	fail(r.errOut, "unknown subcommand: "+cmd)
	fmt.Fprintln(r.errOut)
	printHelp(r.errOut)
	return 2
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `itemsctl - manage items over the REST API

Usage:
  itemsctl [-api URL] [-timeout 10s] <subcommand> [args]

Subcommands:
  ls                                  List items, newest first
  add -d <description> [-done] <title...>
                                      Create an item
  done <index|id>                     Toggle completed
  edit [-t <title>] [-d <desc>] <index|id>
                                      Change title and/or description
  rm <index|id>                       Delete an item
  ui                                  Interactive list (a add, e edit, space toggle, x delete)
  help                                Show this help

Items are addressed by their 1-based position in "ls" or by id (a unique
prefix is enough). The API URL defaults to $ITEMS_API_URL.
`)
}

func (r *runner) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *runner) doList() int {
	ctx, cancel := r.ctx()
	defer cancel()

	items, err := r.api.List(ctx)
	if err != nil {
		r.reportErr(err)
		return 1
	}
	fmt.Fprintln(r.out, renderList(items))
	return 0
}

func renderList(items []itemsclient.Item) string {
	if len(items) == 0 {
		return panel([]string{titleStyle.Render("Items"), mutedStyle.Render("no items yet")})
	}

	done, pending := stats(items)
	lines := []string{
		fmt.Sprintf("%s   %s %d  %s %d  %s %d",
			titleStyle.Render("Items"),
			successStyle.Render("✔"), done,
			pendingStyle.Render("•"), pending,
			accentStyle.Render("Total"), len(items),
		),
		"",
	}
	for i, it := range items {
		box, title := mutedStyle.Render(boxUnchecked), it.Title
		if it.Completed {
			box, title = successStyle.Render(boxChecked), doneStyle.Render(it.Title)
		}
		lines = append(lines, fmt.Sprintf("%2d. %s %s  %s", i+1, box, title, mutedStyle.Render(it.Description)))
	}
	lines = append(lines, "", progressBar(done, len(items), 28))
	return panel(lines)
}

func stats(items []itemsclient.Item) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return done, pending
}

func (r *runner) doAdd(req itemsclient.CreateRequest) int {
	ctx, cancel := r.ctx()
	defer cancel()

	item, err := r.api.Create(ctx, req)
	if err != nil {
		r.reportErr(err)
		return 1
	}
	ok(r.out, fmt.Sprintf("added %q (%s)", item.Title, item.ID))
	return 0
}

func (r *runner) doToggle(ref string) int {
	ctx, cancel := r.ctx()
	defer cancel()

	it, err := r.resolve(ctx, ref)
	if err != nil {
		r.reportErr(err)
		return 1
	}
	completed := !it.Completed
	updated, err := r.api.Update(ctx, it.ID, itemsclient.UpdateRequest{Completed: &completed})
	if err != nil {
		r.reportErr(err)
		return 1
	}
	state := "pending"
	if updated.Completed {
		state = "done"
	}
	ok(r.out, fmt.Sprintf("%q marked %s", updated.Title, state))
	return 0
}

func (r *runner) doEdit(ref string, req itemsclient.UpdateRequest) int {
	ctx, cancel := r.ctx()
	defer cancel()

	it, err := r.resolve(ctx, ref)
	if err != nil {
		r.reportErr(err)
		return 1
	}
	updated, err := r.api.Update(ctx, it.ID, req)
	if err != nil {
		r.reportErr(err)
		return 1
	}
	ok(r.out, fmt.Sprintf("updated %q", updated.Title))
	return 0
}

func (r *runner) doRemove(ref string) int {
	ctx, cancel := r.ctx()
	defer cancel()

	it, err := r.resolve(ctx, ref)
	if err != nil {
		r.reportErr(err)
		return 1
	}
	if err := r.api.Delete(ctx, it.ID); err != nil {
		r.reportErr(err)
		return 1
	}
	ok(r.out, fmt.Sprintf("removed %q", it.Title))
	return 0
}

var errNoMatch = errors.New("no item matches")

// resolve maps a 1-based list position or an id prefix to an item. A
// number outside the list is tried as an id prefix.
func (r *runner) resolve(ctx context.Context, ref string) (itemsclient.Item, error) {
	items, err := r.api.List(ctx)
	if err != nil {
		return itemsclient.Item{}, err
	}
	n, err := strconv.Atoi(ref)
	isIndex := err == nil
	if isIndex && n >= 1 && n <= len(items) {
		return items[n-1], nil
	}

	var matches []itemsclient.Item
	for _, it := range items {
		if it.ID == ref {
			return it, nil
		}
		if strings.HasPrefix(it.ID, ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		if isIndex {
			return itemsclient.Item{}, fmt.Errorf("index %d out of range (1..%d)", n, len(items))
		}
		return itemsclient.Item{}, fmt.Errorf("%w %q", errNoMatch, ref)
	case 1:
		return matches[0], nil
	default:
		return itemsclient.Item{}, fmt.Errorf("id prefix %q is ambiguous (%d items)", ref, len(matches))
	}
}

func (r *runner) reportErr(err error) {
	var apiErr *itemsclient.APIError
	if !errors.As(err, &apiErr) {
		fail(r.errOut, err.Error())
		return
	}
	fail(r.errOut, apiErr.Message)
	keys := make([]string, 0, len(apiErr.Fields))
	for k := range apiErr.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(r.errOut, "  %s: %s\n", k, apiErr.Fields[k])
	}
}
