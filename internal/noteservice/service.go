// Package noteservice is the read-only note service shared by the HTTP API
// and the MCP server.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/catalog"
	"github.com/starford/notesift/internal/models"
	"github.com/starford/notesift/internal/parser"
	"github.com/starford/notesift/internal/search"
	"github.com/starford/notesift/internal/storage"
	"github.com/starford/notesift/internal/traversal"
)

// NoteDetail is the full representation of a note. Paths are vault-relative.
type NoteDetail struct {
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	Tags         []string  `json:"tags"`
	Category     []string  `json:"category"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
	Checksum     string    `json:"checksum"`
	Content      string    `json:"content"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path         string    `json:"path"`
	Title        string    `json:"title"`
	Tags         []string  `json:"tags"`
	Category     []string  `json:"category"`
	LastModified time.Time `json:"last_modified"`
}

// SearchHit is one matching note.
type SearchHit struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Service answers read queries over one vault.
type Service struct {
	store  storage.Provider
	engine *search.Engine
}

// NewService creates a new note service. engine must be rooted at the same
// directory as store.
func NewService(store storage.Provider, engine *search.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// GetNote reads one note by vault-relative path.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	doc, err := s.document(path)
	if err != nil {
		return nil, err
	}
	m := doc.Metadata
	return &NoteDetail{
		Path:         s.store.Rel(doc.Path),
		Filename:     m.Filename,
		Title:        m.Title,
		Tags:         m.Tags,
		Category:     m.Category,
		Created:      m.Created,
		LastModified: m.LastModified,
		Checksum:     storage.Checksum([]byte(doc.Content)),
		Content:      doc.Content,
	}, nil
}

// RenderNote returns the HTML rendering of a note body.
func (s *Service) RenderNote(_ context.Context, path string) ([]byte, error) {
	doc, err := s.document(path)
	if err != nil {
		return nil, err
	}
	return parser.Render([]byte(doc.Content))
}

// ListNotes lists notes under category (slash-separated, empty for all)
// carrying tag (empty for any), ordered by path.
func (s *Service) ListNotes(_ context.Context, category, tag string) ([]NoteListItem, error) {
	docs, err := s.engine.Documents()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Build(docs)
	if err != nil {
		return nil, err
	}
	defer cat.Close()

	paths, err := cat.Paths(category, tag)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]*models.Document, len(docs))
	for _, d := range docs {
		byPath[d.Path] = d
	}
	out := make([]NoteListItem, 0, len(paths))
	for _, p := range paths {
		d := byPath[p]
		out = append(out, NoteListItem{
			Path:         s.store.Rel(d.Path),
			Title:        d.Metadata.Title,
			Tags:         d.Metadata.Tags,
			Category:     d.Metadata.Category,
			LastModified: d.Metadata.LastModified,
		})
	}
	return out, nil
}

// Search returns the notes whose searchable text matches pattern.
func (s *Service) Search(_ context.Context, pattern string) ([]SearchHit, error) {
	re, err := search.Compile(pattern)
	if err != nil {
		return nil, err
	}
	docs, err := s.engine.Documents()
	if err != nil {
		return nil, err
	}
	out := []SearchHit{}
	for _, d := range docs {
		if search.Matches(re, d) {
			out = append(out, SearchHit{Path: s.store.Rel(d.Path), Title: d.Metadata.Title})
		}
	}
	return out, nil
}

// Categories builds the category tree of the vault.
func (s *Service) Categories(_ context.Context) (*traversal.CategoryTree, error) {
	return traversal.BuildCategoryTree(s.store.Root())
}

// Stats aggregates the vault into a catalog report.
func (s *Service) Stats(_ context.Context) (*catalog.Report, error) {
	docs, err := s.engine.Documents()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Build(docs)
	if err != nil {
		return nil, err
	}
	defer cat.Close()
	return cat.Report()
}

// Invalidate forgets any cached copy of the note at the absolute path.
func (s *Service) Invalidate(abs string) {
	s.engine.Invalidate(abs)
}

func (s *Service) document(path string) (*models.Document, error) {
	if path == "" || !search.IsMarkdown(path) {
		return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
	}
	doc, err := s.store.Document(path, s.engine.Location())
	if err != nil {
		if errors.Is(err, apperr.ErrNotAFile) {
			return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return doc, nil
}
