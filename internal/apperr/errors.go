// Package apperr defines the sentinel errors shared across notesift packages.
package apperr

import "errors"

var (
	// ErrNotAFile is returned when a path that must name a regular file does not.
	ErrNotAFile = errors.New("not a file")
	// ErrInvalidPattern is returned when a search pattern fails to compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrNotFound is returned when no document matches a non-interactive search.
	ErrNotFound = errors.New("not found")
	// ErrNotInTree is returned when a path does not belong to a category tree.
	ErrNotInTree = errors.New("path does not match the category tree")
	// ErrNotTerminal is returned when the interactive session has no terminal to drive.
	ErrNotTerminal = errors.New("not a terminal")
	// ErrNoPaths is returned when the editor is launched without any file.
	ErrNoPaths = errors.New("no files provided to editor")
	// ErrInvalidPath is returned when a vault-relative path is absolute or escapes the root.
	ErrInvalidPath = errors.New("invalid path")
)
