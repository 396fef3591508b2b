package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spoolview/internal/prefs"
	"github.com/five82/spoolview/internal/spooler"
	"github.com/five82/spoolview/internal/state"
)

// scriptedQuery returns its results in order, repeating the last one.
type scriptedQuery struct {
	results []queryResult
	calls   int
	// seen records the list lines visible when each query ran.
	seen [][]string
	list *listView
}

type queryResult struct {
	listing spooler.Listing
	err     error
}

func (q *scriptedQuery) run(ctx context.Context) (spooler.Listing, error) {
	if q.list != nil {
		q.seen = append(q.seen, q.list.Lines())
	}
	i := min(q.calls, len(q.results)-1)
	q.calls++
	return q.results[i].listing, q.results[i].err
}

func newTestModel(t *testing.T, q *scriptedQuery) Model {
	t.Helper()
	m, err := New(context.Background(), Options{
		Query:     q.run,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	q.list = m.list
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// settle delivers msg and then runs every returned command to completion.
func settle(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			return m
		}
		msg = cmd()
	}
	return m
}

func start(t *testing.T, m Model) Model {
	t.Helper()
	return settle(t, m, m.Init()())
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func listing(jobs ...spooler.Job) spooler.Listing {
	return spooler.Listing{Printer: "lab", State: spooler.PrinterIdle, Jobs: jobs}
}

func TestInit_ShowsScenarioJobsInOrder(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{{listing: listing(
		spooler.Job{ID: 5, Document: "report.docx"},
		spooler.Job{ID: 6, Document: "invoice.pdf"},
	)}}}
	m := start(t, newTestModel(t, q))

	want := []string{
		"Job ID: 5, Document: report.docx",
		"Job ID: 6, Document: invoice.pdf",
	}
	if got := m.list.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %#v, want %#v", got, want)
	}
	if q.calls != 1 {
		t.Fatalf("query ran %d times, want exactly once on window creation", q.calls)
	}
	if m.modal != nil {
		t.Fatalf("modal = %#v, want none", m.modal)
	}
}

func TestInit_EmptyQueueShowsNoLines(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{{listing: listing()}}}
	m := start(t, newTestModel(t, q))

	if n := m.list.Len(); n != 0 {
		t.Fatalf("list has %d lines, want 0", n)
	}
	if m.modal != nil {
		t.Fatalf("modal opened for an empty queue")
	}
	if view := m.View(); !strings.Contains(view, "No jobs in queue") {
		t.Fatalf("view does not show empty state:\n%s", view)
	}
}

func TestRefresh_SecondRefreshReplacesLines(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{
		{listing: listing(spooler.Job{ID: 1, Document: "a"}, spooler.Job{ID: 2, Document: "b"})},
		{listing: listing(spooler.Job{ID: 3, Document: "c"})},
	}}
	m := start(t, newTestModel(t, q))
	m = settle(t, m, keyRune('r'))

	want := []string{"Job ID: 3, Document: c"}
	if got := m.list.Lines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %#v, want %#v", got, want)
	}
}

func TestRefresh_ClearsBeforeQueryRuns(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{
		{listing: listing(spooler.Job{ID: 1, Document: "a"})},
	}}
	m := start(t, newTestModel(t, q))
	_ = settle(t, m, keyRune('r'))

	if len(q.seen) != 2 {
		t.Fatalf("query ran %d times, want 2", len(q.seen))
	}
	for i, lines := range q.seen {
		if len(lines) != 0 {
			t.Fatalf("query %d saw %d lines, want the list cleared first", i, len(lines))
		}
	}
}

func TestRefresh_FailureLeavesListCleared(t *testing.T) {
	openErr := &spooler.QueryError{Kind: spooler.ErrOpen, Err: errors.New("printer offline")}
	q := &scriptedQuery{results: []queryResult{
		{listing: listing(spooler.Job{ID: 1, Document: "a"})},
		{err: openErr},
	}}
	m := start(t, newTestModel(t, q))
	if m.list.Len() != 1 {
		t.Fatalf("first refresh left %d lines, want 1", m.list.Len())
	}

	m = settle(t, m, keyRune('r'))

	if n := m.list.Len(); n != 0 {
		t.Fatalf("list has %d lines after failed refresh, want 0", n)
	}
	em, ok := m.modal.(errorModal)
	if !ok {
		t.Fatalf("modal = %#v, want errorModal", m.modal)
	}
	if em.title != "Failed to open printer" {
		t.Fatalf("modal title = %q", em.title)
	}
	if !strings.Contains(em.message, "printer offline") {
		t.Fatalf("modal message = %q, want the cause", em.message)
	}
	if m.snapshot.LastError == nil || !errors.Is(m.snapshot.LastError, spooler.ErrOpen) {
		t.Fatalf("snapshot error = %v, want ErrOpen", m.snapshot.LastError)
	}
}

func TestModal_BlocksInputUntilDismissed(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{
		{err: fmt.Errorf("%w", spooler.ErrEnumeration)},
	}}
	m := start(t, newTestModel(t, q))
	if m.modal == nil {
		t.Fatalf("expected modal after failed query")
	}

	for _, msg := range []tea.KeyMsg{keyRune('r'), keyRune('q'), keyRune('?')} {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd != nil {
			t.Fatalf("key %q produced a command while the modal was open", msg.String())
		}
		if m.modal == nil || m.showHelp {
			t.Fatalf("key %q got past the modal", msg.String())
		}
	}
	if q.calls != 1 {
		t.Fatalf("query ran %d times, want 1", q.calls)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.modal != nil {
		t.Fatalf("modal still open after enter")
	}
}

func TestModal_ForceQuitStillWorks(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{{err: spooler.ErrAllocation}}}
	m := start(t, newTestModel(t, q))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("ctrl+c did not quit")
	}
}

func TestQuitKeys(t *testing.T) {
	cases := map[string]tea.KeyMsg{
		"q":      keyRune('q'),
		"esc":    {Type: tea.KeyEsc},
		"ctrl+c": {Type: tea.KeyCtrlC},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			q := &scriptedQuery{results: []queryResult{{listing: listing()}}}
			m := start(t, newTestModel(t, q))
			_, cmd := m.Update(msg)
			if cmd == nil {
				t.Fatalf("%s returned no command", name)
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Fatalf("%s did not quit", name)
			}
		})
	}
}

func TestRefresh_IgnoredWhileQueryInFlight(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{{listing: listing()}}}
	m := newTestModel(t, q)

	next, cmd := m.Update(m.Init()())
	m = next.(Model)
	if cmd == nil || !m.refreshing {
		t.Fatalf("window creation did not start a query")
	}
	if _, again := m.Update(keyRune('r')); again != nil {
		t.Fatalf("refresh started while another query was running")
	}
}

func TestCycleTheme_SavesPreference(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{{listing: listing()}}}
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m, err := New(context.Background(), Options{Query: q.run, PrefsPath: path, ThemeName: "Nightfox"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	m = update(t, m, keyRune('T'))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	if got := prefs.Load(path).Theme; got != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", got)
	}
}

func TestRefresh_RecordsOutcomeInStore(t *testing.T) {
	store := &state.Store{}
	query := func(ctx context.Context) (spooler.Listing, error) {
		return spooler.Listing{Printer: "ipp://cups.local/printers/lab", State: spooler.PrinterProcessing,
			Jobs: []spooler.Job{{ID: 9, Document: "poster.png"}}}, nil
	}
	m, err := New(context.Background(), Options{Query: query, Store: store, PrefsPath: filepath.Join(t.TempDir(), "p.toml")})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 20})
	m = start(t, m)

	if got := store.Snapshot(); got.Queries != 1 || !got.HasListing || len(got.Jobs) != 1 {
		t.Fatalf("store snapshot = %#v, want one recorded listing", got)
	}
	if m.snapshot.Queries != 1 || m.snapshot.Printer != "ipp://cups.local/printers/lab" {
		t.Fatalf("snapshot = %#v, want the store's listing", m.snapshot)
	}
	view := m.View()
	for _, want := range []string{"ipp://cups.local/printers/lab", "PROCESSING", "Job ID: 9, Document: poster.png"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestNew_CreatesStoreWhenNil(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{
		{listing: listing(spooler.Job{ID: 1, Document: "a"})},
		{err: &spooler.QueryError{Kind: spooler.ErrEnumeration, Err: errors.New("timeout")}},
	}}
	m := newTestModel(t, q)
	if m.store == nil {
		t.Fatalf("New left the store nil")
	}

	m = start(t, m)
	m = settle(t, m, keyRune('r'))

	snap := m.store.Snapshot()
	if snap.Queries != 2 || snap.ConsecutiveFailures != 1 {
		t.Fatalf("store snapshot = %#v, want 2 queries with 1 failure", snap)
	}
	if !snap.HasListing || snap.Printer != "lab" {
		t.Fatalf("store snapshot = %#v, want the earlier listing kept", snap)
	}
	if !errors.Is(m.snapshot.LastError, spooler.ErrEnumeration) {
		t.Fatalf("model snapshot error = %v, want ErrEnumeration", m.snapshot.LastError)
	}
}

func TestNew_RequiresQuery(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if !errors.Is(err, ErrWindowCreation) {
		t.Fatalf("New error = %v, want ErrWindowCreation", err)
	}
}

func TestView_BeforeSize(t *testing.T) {
	q := &scriptedQuery{results: []queryResult{{listing: listing()}}}
	m, err := New(context.Background(), Options{Query: q.run})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View = %q, want Loading...", got)
	}
}
