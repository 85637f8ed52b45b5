package traversal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/notesift/internal/apperr"
)

// CategoryTree is a read-only snapshot of the directories beneath a root.
// Files never appear as nodes.
type CategoryTree struct {
	Name     string          `json:"name"`
	Children []*CategoryTree `json:"children"`
}

// BuildCategoryTree mirrors the directory hierarchy under root. Unlike
// ListFiles, any directory that cannot be read fails the whole build.
func BuildCategoryTree(root string) (*CategoryTree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("traversal: resolve root: %w", err)
	}
	w := walker{ancestors: map[string]struct{}{}}
	return w.tree(root, filepath.Base(abs))
}

func (w *walker) tree(dir, name string) (*CategoryTree, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("traversal: read dir %s: %w", dir, err)
	}
	w.enter(dir)
	defer w.leave(dir)

	node := &CategoryTree{Name: name, Children: []*CategoryTree{}}
	for _, e := range entries {
		child := filepath.Join(dir, e.Name())
		info, err := os.Stat(child)
		if err != nil || !info.IsDir() {
			continue
		}
		if real, err := filepath.EvalSymlinks(child); err == nil {
			if _, cyclic := w.ancestors[real]; cyclic {
				continue
			}
		}
		sub, err := w.tree(child, e.Name())
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, sub)
	}
	return node, nil
}

// Child returns the direct child called name, or nil.
func (t *CategoryTree) Child(name string) *CategoryTree {
	for _, c := range t.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Categories returns the category path of path within t. A regular file is
// resolved to its parent directory first. Every segment after the one naming
// the tree root must match a child, otherwise ErrNotInTree is returned.
func (t *CategoryTree) Categories(path string) ([]string, error) {
	dir := path
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		dir = filepath.Dir(path)
	}

	segments := splitPath(dir)
	start := -1
	for i, s := range segments {
		if s == t.Name {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("traversal: %s: %w", path, apperr.ErrNotInTree)
	}

	out := []string{}
	node := t
	for _, s := range segments[start:] {
		next := node.Child(s)
		if next == nil {
			return nil, fmt.Errorf("traversal: %s: %w", path, apperr.ErrNotInTree)
		}
		out = append(out, s)
		node = next
	}
	return out, nil
}

// Count returns the number of nodes, the root included.
func (t *CategoryTree) Count() int {
	n := 1
	for _, c := range t.Children {
		n += c.Count()
	}
	return n
}

// Render writes the tree with box-drawing connectors.
func (t *CategoryTree) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s/\n", t.Name); err != nil {
		return err
	}
	return t.renderChildren(w, "")
}

func (t *CategoryTree) renderChildren(w io.Writer, prefix string) error {
	for i, c := range t.Children {
		last := i == len(t.Children)-1
		connector, extension := "├── ", "│   "
		if last {
			connector, extension = "└── ", "    "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, connector, c.Name); err != nil {
			return err
		}
		if err := c.renderChildren(w, prefix+extension); err != nil {
			return err
		}
	}
	return nil
}

// splitPath breaks a cleaned path into its non-empty segments.
func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(filepath.ToSlash(filepath.Clean(p)), "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}
