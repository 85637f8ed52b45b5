package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/djherbis/times"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/models"
	"github.com/starford/notesift/internal/parser"
)

// ErrNotText is returned when a file is not valid UTF-8.
var ErrNotText = errors.New("storage: content is not valid UTF-8")

// ReadMetadata derives the metadata of the regular file at path. Timestamps
// are converted to loc (UTC when nil). Creation time is the birth time where
// the platform records one, otherwise the modification time.
func ReadMetadata(path, root string, loc *time.Location) (models.Metadata, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return models.Metadata{}, fmt.Errorf("storage: %s: %w", path, apperr.ErrNotAFile)
	}
	ts, err := times.Stat(path)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("storage: stat times %s: %w", path, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	modified := ts.ModTime()
	created := modified
	if ts.HasBirthTime() {
		created = ts.BirthTime()
	}

	name := filepath.Base(path)
	return models.Metadata{
		Filename:     name,
		Title:        name,
		Tags:         []string{},
		Category:     Category(path, root),
		Created:      created.In(loc),
		LastModified: modified.In(loc),
	}, nil
}

// ReadDocument reads the note at path. A valid preamble replaces the derived
// title and tags, even when its values are empty. The preamble date is not
// applied. Content keeps the preamble verbatim.
func ReadDocument(path, root string, loc *time.Location) (*models.Document, error) {
	meta, err := ReadMetadata(path, root, loc)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrNotText, path)
	}

	if p, _, err := parser.ParsePreamble(data); err == nil {
		meta.Title = p.Title
		meta.Tags = append([]string{}, p.Tags...)
	}

	return &models.Document{
		Path:     path,
		Metadata: meta,
		Content:  string(data),
	}, nil
}

// Category returns the directory names between root and path, dropping every
// segment that contains a dot. The filename always contains one.
func Category(path, root string) []string {
	out := []string{}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return out
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return out
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return out
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if seg == "" || strings.Contains(seg, ".") {
			continue
		}
		out = append(out, seg)
	}
	return out
}
