// Package editor launches the user's external editor on a set of notes.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/starford/notesift/internal/apperr"
)

// DefaultCommand is used when neither the configuration nor the environment
// names an editor.
const DefaultCommand = "nvim"

// Editor describes how to start the external editor. Command may carry its
// own arguments ("code --wait"); Args are placed after them and before the
// file paths.
type Editor struct {
	Command string
	Args    []string
}

// New returns an Editor for command, falling back to $VISUAL, $EDITOR and
// finally DefaultCommand when command is blank.
func New(command string, args ...string) *Editor {
	if strings.TrimSpace(command) == "" {
		command = FromEnv()
	}
	return &Editor{Command: command, Args: args}
}

// FromEnv resolves the editor from the environment.
func FromEnv() string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return DefaultCommand
}

// Cmd builds the command that opens paths, in order. Standard streams are
// left unset so callers can attach them (tea.ExecProcess does).
func (e *Editor) Cmd(paths ...string) (*exec.Cmd, error) {
	name, args, err := e.argv(paths)
	if err != nil {
		return nil, err
	}
	return exec.Command(name, args...), nil
}

// Launch runs the editor on paths attached to the current terminal and blocks
// until it exits. The editor's exit status is not interpreted; only a failure
// to start or wait on the process is returned.
func (e *Editor) Launch(ctx context.Context, paths ...string) error {
	name, args, err := e.argv(paths)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("editor: launch %s: %w", name, err)
	}
	return nil
}

func (e *Editor) argv(paths []string) (string, []string, error) {
	if len(paths) == 0 {
		return "", nil, apperr.ErrNoPaths
	}
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		fields = []string{DefaultCommand}
	}
	args := make([]string, 0, len(fields)-1+len(e.Args)+len(paths))
	args = append(args, fields[1:]...)
	args = append(args, e.Args...)
	args = append(args, paths...)
	return fields[0], args, nil
}
