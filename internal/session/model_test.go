package session

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/search"
)

type fakeSearcher struct {
	results map[string][]string
	err     error
	calls   []string
}

func (f *fakeSearcher) Search(pattern string) ([]string, error) {
	f.calls = append(f.calls, pattern)
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("fake: %w", apperr.ErrInvalidPattern)
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]string{}, f.results[pattern]...), nil
}

type fakeLauncher struct {
	opened [][]string
	err    error
}

func (f *fakeLauncher) Cmd(paths ...string) (*exec.Cmd, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opened = append(f.opened, paths)
	return exec.Command("true", paths...), nil
}

func typeText(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func press(m *Model, t tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: t})
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestInteractiveScenario(t *testing.T) {
	root := t.TempDir()
	for name, body := range map[string]string{
		"apple.md":  "a red fruit",
		"banana.md": "a yellow fruit",
		"cherry.md": "a small fruit",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(body), 0o644))
	}
	launcher := &fakeLauncher{}
	m := New(search.NewEngine(root), launcher)

	assert.Contains(t, m.View(), placeholder)
	assert.Empty(t, m.Results())

	typeText(m, "yell")
	require.Len(t, m.Results(), 1)
	assert.Equal(t, 0, m.Selection())
	assert.Contains(t, m.View(), "Found 1 matches")

	press(m, tea.KeyDown)
	assert.Equal(t, 0, m.Selection())

	cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	require.Len(t, launcher.opened, 1)
	assert.Equal(t, []string{filepath.Join(root, "banana.md")}, launcher.opened[0])

	// State survives the edit and the screen is redrawn.
	m.Update(editorFinishedMsg{})
	assert.Equal(t, "yell", m.Query())
	assert.Len(t, m.Results(), 1)
	assert.True(t, m.dirty)
}

func TestEmptyQueryMakesNoSearch(t *testing.T) {
	s := &fakeSearcher{}
	m := New(s, &fakeLauncher{})
	typeText(m, "x")
	press(m, tea.KeyBackspace)
	assert.Equal(t, []string{"x"}, s.calls)
	assert.Empty(t, m.Results())
	assert.Contains(t, m.View(), placeholder)
	assert.Nil(t, press(m, tea.KeyEnter))
}

func TestNavigationIsClamped(t *testing.T) {
	s := &fakeSearcher{results: map[string][]string{"n": {"/v/1.md", "/v/2.md", "/v/3.md"}}}
	m := New(s, &fakeLauncher{})
	typeText(m, "n")

	press(m, tea.KeyUp)
	assert.Equal(t, 0, m.Selection())
	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	assert.Equal(t, 2, m.Selection())
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, 1, m.Selection())
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, 2, m.Selection())
}

func TestInvalidPatternKeepsSelection(t *testing.T) {
	s := &fakeSearcher{results: map[string][]string{"a": {"/v/1.md", "/v/2.md"}}}
	launcher := &fakeLauncher{}
	m := New(s, launcher)
	typeText(m, "a")
	press(m, tea.KeyDown)
	require.Equal(t, 1, m.Selection())

	typeText(m, "(")
	assert.True(t, m.Invalid())
	assert.Empty(t, m.Results())
	assert.Equal(t, 1, m.Selection())
	assert.Contains(t, m.View(), invalidPattern)

	assert.Nil(t, press(m, tea.KeyEnter))
	assert.Empty(t, launcher.opened)

	press(m, tea.KeyBackspace)
	assert.False(t, m.Invalid())
	assert.Len(t, m.Results(), 2)
	assert.Equal(t, 0, m.Selection())
}

func TestSearchFailureDegradesToNoResults(t *testing.T) {
	s := &fakeSearcher{err: errors.New("permission denied")}
	m := New(s, &fakeLauncher{})
	typeText(m, "q")
	assert.False(t, m.Invalid())
	assert.Empty(t, m.Results())
	assert.Equal(t, 0, m.Selection())
	assert.Contains(t, m.View(), noMatches)
}

func TestSpaceAndBackspaceEditQuery(t *testing.T) {
	s := &fakeSearcher{}
	m := New(s, &fakeLauncher{})
	typeText(m, "é b")
	assert.Equal(t, "é b", m.Query())
	press(m, tea.KeyBackspace)
	press(m, tea.KeyBackspace)
	assert.Equal(t, "é", m.Query())
	press(m, tea.KeyBackspace)
	assert.Equal(t, "", m.Query())
	press(m, tea.KeyBackspace)
	assert.Equal(t, "", m.Query())
}

func TestQuitKeys(t *testing.T) {
	for _, kt := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := New(&fakeSearcher{}, &fakeLauncher{})
		assert.True(t, isQuit(press(m, kt)), fmt.Sprint(kt))
	}
}

func TestLaunchFailureEndsSession(t *testing.T) {
	s := &fakeSearcher{results: map[string][]string{"a": {"/v/a.md"}}}
	boom := errors.New("boom")
	m := New(s, &fakeLauncher{err: boom})
	typeText(m, "a")
	assert.True(t, isQuit(press(m, tea.KeyEnter)))
	assert.ErrorIs(t, m.Err(), boom)
}

func TestEditorFinished(t *testing.T) {
	m := New(&fakeSearcher{}, &fakeLauncher{})
	m.View()

	_, cmd := m.Update(editorFinishedMsg{err: &exec.ExitError{}})
	assert.Nil(t, cmd)
	assert.NoError(t, m.Err())
	assert.True(t, m.dirty)

	_, cmd = m.Update(editorFinishedMsg{err: exec.ErrNotFound})
	assert.True(t, isQuit(cmd))
	assert.ErrorIs(t, m.Err(), exec.ErrNotFound)
}

func TestChangeReissuesQuery(t *testing.T) {
	changes := make(chan struct{}, 1)
	s := &fakeSearcher{results: map[string][]string{"a": {"/v/a.md", "/v/b.md"}}}
	m := New(s, &fakeLauncher{}, WithChanges(changes))
	typeText(m, "a")
	press(m, tea.KeyDown)

	s.results["a"] = []string{"/v/a.md"}
	changes <- struct{}{}
	msg := m.Init()()
	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"/v/a.md"}, m.Results())
	assert.Equal(t, 0, m.Selection())
	assert.Equal(t, []string{"a", "a"}, s.calls)
}

func TestChangeWithEmptyQuery(t *testing.T) {
	s := &fakeSearcher{}
	m := New(s, &fakeLauncher{}, WithChanges(make(chan struct{})))
	m.Update(changedMsg{})
	assert.Empty(t, s.calls)
}

func TestViewRedrawsOnlyWhenDirty(t *testing.T) {
	m := New(&fakeSearcher{}, &fakeLauncher{})
	first := m.View()
	assert.False(t, m.dirty)

	press(m, tea.KeyDown)
	assert.False(t, m.dirty)
	assert.Equal(t, first, m.View())

	typeText(m, "z")
	assert.True(t, m.dirty)
	assert.NotEqual(t, first, m.View())
}

func TestResultWindowFollowsSelection(t *testing.T) {
	var paths []string
	for i := 1; i <= 15; i++ {
		paths = append(paths, fmt.Sprintf("/v/n%02d.md", i))
	}
	s := &fakeSearcher{results: map[string][]string{"n": paths}}
	m := New(s, &fakeLauncher{}, WithMaxResults(10))
	typeText(m, "n")

	view := m.View()
	assert.Contains(t, view, "10. n10.md")
	assert.NotContains(t, view, "11. n11.md")

	for i := 0; i < 12; i++ {
		press(m, tea.KeyDown)
	}
	view = m.View()
	assert.Contains(t, view, "13. n13.md")
	assert.NotContains(t, view, " 3. n03.md")
	assert.Equal(t, 10, strings.Count(view, ".md"))
}
