package editor

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notesift/internal/apperr"
)

func TestNewFallsBackToEnvironment(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", New("").Command)

	t.Setenv("VISUAL", "code --wait")
	assert.Equal(t, "code --wait", New("  ").Command)

	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	assert.Equal(t, DefaultCommand, New("").Command)

	assert.Equal(t, "hx", New("hx").Command)
}

func TestCmdArguments(t *testing.T) {
	e := &Editor{Command: "code --wait", Args: []string{"-n"}}
	cmd, err := e.Cmd("a.md", "b.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "--wait", "-n", "a.md", "b.md"}, cmd.Args)
}

func TestCmdRequiresPaths(t *testing.T) {
	_, err := New("vi").Cmd()
	assert.ErrorIs(t, err, apperr.ErrNoPaths)
	assert.ErrorIs(t, New("vi").Launch(context.Background()), apperr.ErrNoPaths)
}

func TestLaunchIgnoresExitStatus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	err := New("false").Launch(context.Background(), "note.md")
	assert.NoError(t, err)
}

func TestLaunchReportsStartFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-editor")
	err := New(missing).Launch(context.Background(), "note.md")
	require.Error(t, err)
	var exitErr *exec.ExitError
	assert.False(t, errors.As(err, &exitErr))
}
