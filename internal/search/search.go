// Package search matches notes against a regular expression applied to the
// joined text of their fields.
package search

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/models"
)

// Search returns the paths of the notes under root whose searchable text
// matches pattern, in enumeration order. Unreadable notes are skipped.
// A pattern that matches nothing yields an empty, non-nil slice.
func Search(pattern, root string, loc *time.Location) ([]string, error) {
	return NewEngine(root, WithLocation(loc), WithCache(false)).Search(pattern)
}

// Compile compiles pattern, wrapping failures in apperr.ErrInvalidPattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("search: %w: %v", apperr.ErrInvalidPattern, err)
	}
	return re, nil
}

// SearchableText joins filename, title, tags, category and content with
// single spaces. Tags and category are themselves space-joined.
func SearchableText(doc *models.Document) string {
	m := doc.Metadata
	return strings.Join([]string{
		m.Filename,
		m.Title,
		strings.Join(m.Tags, " "),
		strings.Join(m.Category, " "),
		doc.Content,
	}, " ")
}

// Matches reports whether re matches anywhere in the searchable text of doc.
func Matches(re *regexp.Regexp, doc *models.Document) bool {
	return re.MatchString(SearchableText(doc))
}

// IsMarkdown reports whether the final segment of path has exactly the
// ".md" extension and a non-empty stem.
func IsMarkdown(path string) bool {
	name := filepath.Base(path)
	return filepath.Ext(name) == ".md" && len(name) > len(".md")
}
