package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	placeholder    = "Start typing to search..."
	noMatches      = "No matches"
	invalidPattern = "Invalid regex pattern"
	separatorWidth = 50
)

var (
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// View draws the session. The previous frame is reused until something
// visible has changed.
func (m *Model) View() string {
	if !m.dirty && m.frame != "" {
		return m.frame
	}
	m.frame = m.render()
	m.dirty = false
	return m.frame
}

func (m *Model) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search: %s\n", m.query)

	width := separatorWidth
	if m.width > 0 && m.width < width {
		width = m.width
	}
	b.WriteString(strings.Repeat("─", width))
	b.WriteByte('\n')

	switch {
	case m.query == "":
		b.WriteString(dimStyle.Render(placeholder))
	case m.invalid:
		b.WriteString(errorStyle.Render(invalidPattern))
	case len(m.results) == 0:
		b.WriteString(noMatches)
	default:
		fmt.Fprintf(&b, "Found %d matches (↑↓ to select, Enter to edit):", len(m.results))
		start, end := m.window()
		for i := start; i < end; i++ {
			b.WriteByte('\n')
			name := filepath.Base(m.results[i])
			if i == m.selection {
				b.WriteString(selectedStyle.Render(fmt.Sprintf("▶ %d. %s", i+1, name)))
			} else {
				fmt.Fprintf(&b, "  %d. %s", i+1, name)
			}
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// window returns the slice of results to draw so the selection stays visible.
func (m *Model) window() (int, int) {
	n := len(m.results)
	if n <= m.maxResults {
		return 0, n
	}
	start := 0
	if m.selection >= m.maxResults {
		start = m.selection - m.maxResults + 1
	}
	return start, start + m.maxResults
}
