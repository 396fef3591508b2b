package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/spoolview/internal/joblist"
	"github.com/five82/spoolview/internal/prefs"
	"github.com/five82/spoolview/internal/spooler"
	"github.com/five82/spoolview/internal/state"
)

// ErrWindowCreation is returned when the terminal window cannot be set up.
var ErrWindowCreation = errors.New("create job list window")

// QueryFunc fetches the default printer's pending jobs.
type QueryFunc func(ctx context.Context) (spooler.Listing, error)

// Options configures the UI.
type Options struct {
	Query     QueryFunc
	Store     *state.Store // optional; records every query outcome, created when nil
	ThemeName string
	PrefsPath string
}

// Model is the root application state for Bubble Tea. It owns the job list
// surface and the presenter bound to it.
type Model struct {
	ctx       context.Context
	query     QueryFunc
	store     *state.Store
	prefsPath string
	keys      keyMap

	theme  Theme
	width  int
	height int
	ready  bool

	list      *listView
	presenter *joblist.Presenter
	snapshot  state.Snapshot

	refreshing bool
	showHelp   bool
	modal      Modal
}

// New creates the window model. It fails when no query is configured or the
// list surface cannot be bound.
func New(ctx context.Context, opts Options) (Model, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Query == nil {
		return Model{}, fmt.Errorf("%w: no spooler query configured", ErrWindowCreation)
	}

	list := newListView()
	presenter, err := joblist.New(list)
	if err != nil {
		return Model{}, err
	}

	themeName := strings.TrimSpace(opts.ThemeName)
	if themeName == "" {
		themeName = "Nightfox"
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:       ctx,
		query:     opts.Query,
		store:     store,
		prefsPath: prefsPath,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
		list:      list,
		presenter: presenter,
	}, nil
}

// Init implements tea.Model. The window-created message triggers the one
// query made without user input.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return windowCreatedMsg{} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case windowCreatedMsg:
		return m.startRefresh()

	case refreshResultMsg:
		return m.finishRefresh(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.SetSize(max(m.width-2, 0), max(m.height-chromeHeight-2, 0))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderList(m.width, max(m.height-chromeHeight, 0)))
	return b.String()
}

// startRefresh clears the list and runs the query off the event loop.
// The list stays empty if the query fails.
func (m Model) startRefresh() (tea.Model, tea.Cmd) {
	if m.refreshing {
		return m, nil
	}
	m.refreshing = true
	m.presenter.Clear()
	return m, queryCmd(m.ctx, m.query)
}

func (m Model) finishRefresh(msg refreshResultMsg) (tea.Model, tea.Cmd) {
	m.refreshing = false
	if msg.err != nil {
		m.store.Update(nil, msg.err)
	} else {
		listing := msg.listing
		m.store.Update(&listing, nil)
	}
	m.snapshot = m.store.Snapshot()

	if msg.err != nil {
		m.showHelp = false
		m.modal = newErrorModal(msg.err)
		return m, nil
	}

	m.presenter.Refresh(msg.listing.Jobs)
	m.list.flush()
	return m, nil
}

// handleKey processes keyboard input. An open modal receives every key except
// a forced quit.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
			log.Printf("save prefs: %v", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m.startRefresh()
	}

	m.list.handleScroll(msg, m.keys)
	return m, nil
}

// Messages

type windowCreatedMsg struct{}

type refreshResultMsg struct {
	listing spooler.Listing
	err     error
}

// Commands

func queryCmd(ctx context.Context, query QueryFunc) tea.Cmd {
	return func() tea.Msg {
		listing, err := query(ctx)
		return refreshResultMsg{listing: listing, err: err}
	}
}

// Run opens the window and blocks until it is closed or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrWindowCreation, err)
	}
	return nil
}
