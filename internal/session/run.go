package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/starford/notesift/internal/apperr"
)

// Run drives m on the terminal attached to in until the user quits. The
// terminal state found on entry is restored on every return path, including
// a failed editor launch or a cancelled ctx.
func Run(ctx context.Context, m *Model, in *os.File, out io.Writer) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return apperr.ErrNotTerminal
	}
	saved, err := term.GetState(fd)
	if err != nil {
		return fmt.Errorf("session: save terminal state: %w", err)
	}
	defer func() { _ = term.Restore(fd, saved) }()

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("session: %w", err)
	}
	if fm, ok := final.(*Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
