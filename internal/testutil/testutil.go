// Package testutil provides shared test helpers for setting up vaults.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notesift/internal/noteservice"
	"github.com/starford/notesift/internal/search"
	"github.com/starford/notesift/internal/storage"
)

// TestVault creates a temporary vault directory with a storage.FS rooted at it.
func TestVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// WriteFiles creates files under root, keyed by slash-separated relative path.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestService creates a vault holding files and a note service over it.
func TestService(t *testing.T, files map[string]string) (*noteservice.Service, string) {
	t.Helper()
	root, store := TestVault(t)
	WriteFiles(t, root, files)
	return noteservice.NewService(store, search.NewEngine(root)), root
}
