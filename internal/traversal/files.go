// Package traversal enumerates the files of a vault and mirrors its
// directory hierarchy as a category tree.
package traversal

import (
	"fmt"
	"os"
	"path/filepath"
)

// ListFiles returns every regular file reachable from root. If root names a
// regular file the result holds just that path.
//
// Only a failure to read root itself is reported; unreadable subtrees are
// skipped and contribute no files. Symbolic links are followed, and a
// directory already on the current descent path is not entered twice.
func ListFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("traversal: stat root %s: %w", root, err)
	}
	if info.Mode().IsRegular() {
		return []string{root}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("traversal: read root %s: %w", root, err)
	}

	w := walker{ancestors: map[string]struct{}{}}
	w.enter(root)
	out := []string{}
	for _, e := range entries {
		out = w.collect(filepath.Join(root, e.Name()), out)
	}
	return out, nil
}

type walker struct {
	ancestors map[string]struct{}
}

// enter records dir on the descent path. It reports false when dir resolves
// to a directory that is already being walked (a symlink cycle).
func (w *walker) enter(dir string) bool {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	if _, seen := w.ancestors[real]; seen {
		return false
	}
	w.ancestors[real] = struct{}{}
	return true
}

func (w *walker) leave(dir string) {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	delete(w.ancestors, real)
}

func (w *walker) collect(path string, out []string) []string {
	info, err := os.Stat(path)
	if err != nil {
		return out
	}
	if info.Mode().IsRegular() {
		return append(out, path)
	}
	if !info.IsDir() {
		return out
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return out
	}
	if !w.enter(path) {
		return out
	}
	defer w.leave(path)

	for _, e := range entries {
		out = w.collect(filepath.Join(path, e.Name()), out)
	}
	return out
}
