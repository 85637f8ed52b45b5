// Package session implements the interactive incremental search over a notes
// tree. Every query edit re-runs the search synchronously inside Update, so
// results always belong to the query on screen.
package session

import (
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/notesift/internal/apperr"
)

// Searcher runs one query. search.Engine satisfies it.
type Searcher interface {
	Search(pattern string) ([]string, error)
}

// Launcher builds the editor process for the chosen paths. editor.Editor
// satisfies it.
type Launcher interface {
	Cmd(paths ...string) (*exec.Cmd, error)
}

// DefaultMaxResults is the number of rows drawn when no limit is configured.
const DefaultMaxResults = 10

type (
	editorFinishedMsg struct{ err error }
	changedMsg        struct{}
)

// Option configures a Model.
type Option func(*Model)

// WithMaxResults limits the number of result rows drawn at once.
func WithMaxResults(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.maxResults = n
		}
	}
}

// WithChanges makes the session re-run its query whenever changes fires.
func WithChanges(changes <-chan struct{}) Option {
	return func(m *Model) {
		m.changes = changes
	}
}

// WithLogger sets the logger for degraded searches.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithKeys replaces the default key bindings.
func WithKeys(keys KeyMap) Option {
	return func(m *Model) {
		m.keys = keys
	}
}

// Model is the bubbletea model of a search session. It owns the query, the
// result list and the selection; nothing else mutates them.
type Model struct {
	searcher   Searcher
	launcher   Launcher
	maxResults int
	changes    <-chan struct{}
	logger     *slog.Logger
	keys       KeyMap

	query     string
	results   []string
	selection int
	invalid   bool

	// dirty forces the next View to redraw; frame is the last drawing.
	dirty bool
	frame string
	width int

	err error
}

// New creates a session with an empty query. The first View always renders.
func New(searcher Searcher, launcher Launcher, opts ...Option) *Model {
	m := &Model{
		searcher:   searcher,
		launcher:   launcher,
		maxResults: DefaultMaxResults,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
		keys:       DefaultKeys,
		results:    []string{},
		dirty:      true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Query returns the current query text.
func (m *Model) Query() string { return m.query }

// Results returns the current result paths.
func (m *Model) Results() []string { return m.results }

// Selection returns the index of the selected result.
func (m *Model) Selection() int { return m.selection }

// Invalid reports whether the current query failed to compile.
func (m *Model) Invalid() bool { return m.invalid }

// Err returns the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// Init subscribes to change notifications when configured.
func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Update applies one input event.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.dirty = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case editorFinishedMsg:
		if msg.err != nil {
			var exitErr *exec.ExitError
			if !errors.As(msg.err, &exitErr) {
				m.err = msg.err
				return m, tea.Quit
			}
		}
		m.dirty = true
		return m, nil

	case changedMsg:
		if m.query != "" {
			m.runQuery()
		}
		m.dirty = true
		return m, m.waitForChange()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if len(m.results) > 0 && m.selection > 0 {
			m.selection--
			m.dirty = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selection < len(m.results)-1 {
			m.selection++
			m.dirty = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		return m, m.open()

	case key.Matches(msg, m.keys.Backspace):
		if m.query == "" {
			return m, nil
		}
		_, size := utf8.DecodeLastRuneInString(m.query)
		m.query = m.query[:len(m.query)-size]
		m.runQuery()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return m, nil
		}
		m.query += string(msg.Runes)
		m.runQuery()
	case tea.KeySpace:
		m.query += " "
		m.runQuery()
	}
	return m, nil
}

// open hands the selected path to the editor. The program suspends its
// terminal state while the editor runs and restores it afterwards.
func (m *Model) open() tea.Cmd {
	if len(m.results) == 0 || m.selection < 0 || m.selection >= len(m.results) {
		return nil
	}
	path := m.results[m.selection]
	cmd, err := m.launcher.Cmd(path)
	if err != nil {
		m.err = err
		return tea.Quit
	}
	m.logger.Debug("session: open editor", slog.String("path", path))
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// runQuery re-evaluates the query. An invalid pattern clears the results but
// keeps the selection; any other failure degrades to no results.
func (m *Model) runQuery() {
	m.dirty = true
	if m.query == "" {
		m.results = []string{}
		m.selection = 0
		m.invalid = false
		return
	}

	results, err := m.searcher.Search(m.query)
	switch {
	case errors.Is(err, apperr.ErrInvalidPattern):
		m.invalid = true
		m.results = []string{}
	case err != nil:
		m.logger.Warn("session: search failed",
			slog.String("query", m.query),
			slog.String("error", err.Error()))
		m.invalid = false
		m.results = []string{}
		m.selection = 0
	default:
		m.invalid = false
		m.results = results
		m.selection = 0
	}
}
