// Package storage builds documents from files on disk and resolves
// vault-relative paths for the read-only network surfaces.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/models"
)

// Provider is the read-only view of a vault used by the HTTP and MCP servers.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// Resolve maps a vault-relative path to an absolute one inside the root.
	Resolve(rel string) (string, error)
	// Document reads the note at rel (relative to vault root).
	Document(rel string, loc *time.Location) (*models.Document, error)
	// Rel converts an absolute path under the root back to a vault-relative one.
	Rel(abs string) string
}

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to vault directory
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string { return f.root }

// Resolve resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) Resolve(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s: %w", rel, apperr.ErrInvalidPath)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes vault root: %s: %w", rel, apperr.ErrInvalidPath)
	}
	return abs, nil
}

// Document reads the note at rel with the vault root as category base.
func (f *FS) Document(rel string, loc *time.Location) (*models.Document, error) {
	abs, err := f.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return ReadDocument(abs, f.root, loc)
}

// Rel returns abs relative to the root using forward slashes. Paths outside
// the root are returned unchanged.
func (f *FS) Rel(abs string) string {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return abs
	}
	return filepath.ToSlash(rel)
}

// Checksum returns the hex-encoded SHA-256 digest of content.
func Checksum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
