package search

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/notesift/internal/models"
	"github.com/starford/notesift/internal/storage"
	"github.com/starford/notesift/internal/traversal"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the time zone applied to document timestamps.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithCache toggles the per-path document memo.
func WithCache(enabled bool) Option {
	return func(e *Engine) {
		e.cache = enabled
	}
}

// WithLogger sets the logger used for skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

type entry struct {
	size    int64
	modTime time.Time
	doc     *models.Document
}

// Engine runs searches against one root. Every call walks the tree again;
// the memo only saves re-parsing files whose size and mtime are unchanged,
// and it hands out copies so callers never share a Document.
type Engine struct {
	root   string
	loc    *time.Location
	cache  bool
	logger *slog.Logger

	mu   sync.Mutex
	memo map[string]entry
}

// NewEngine creates an Engine rooted at root. Caching is on by default.
func NewEngine(root string, opts ...Option) *Engine {
	e := &Engine{
		root:   root,
		loc:    time.UTC,
		cache:  true,
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		memo:   make(map[string]entry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns the search root.
func (e *Engine) Root() string { return e.root }

// Location returns the time zone documents are read in.
func (e *Engine) Location() *time.Location { return e.loc }

// Search compiles pattern and returns the matching note paths in
// enumeration order. The pattern is compiled before anything is read.
func (e *Engine) Search(pattern string) ([]string, error) {
	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	docs, err := e.Documents()
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, doc := range docs {
		if Matches(re, doc) {
			out = append(out, doc.Path)
		}
	}
	return out, nil
}

// Documents returns every readable Markdown note under the root.
func (e *Engine) Documents() ([]*models.Document, error) {
	files, err := traversal.ListFiles(e.root)
	if err != nil {
		return nil, err
	}
	docs := make([]*models.Document, 0, len(files))
	for _, path := range files {
		if !IsMarkdown(path) {
			continue
		}
		doc, err := e.Document(path)
		if err != nil {
			e.logger.Debug("search: skip document",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Document reads one note through the memo.
func (e *Engine) Document(path string) (*models.Document, error) {
	if !e.cache {
		return storage.ReadDocument(path, e.root, e.loc)
	}

	info, err := os.Stat(path)
	if err == nil {
		e.mu.Lock()
		cached, ok := e.memo[path]
		e.mu.Unlock()
		if ok && cached.size == info.Size() && cached.modTime.Equal(info.ModTime()) {
			return cached.doc.Clone(), nil
		}
	}

	doc, err := storage.ReadDocument(path, e.root, e.loc)
	if err != nil {
		e.Invalidate(path)
		return nil, err
	}
	if info != nil {
		e.mu.Lock()
		e.memo[path] = entry{size: info.Size(), modTime: info.ModTime(), doc: doc.Clone()}
		e.mu.Unlock()
	}
	return doc, nil
}

// Invalidate drops the memo entry for path.
func (e *Engine) Invalidate(path string) {
	e.mu.Lock()
	delete(e.memo, path)
	e.mu.Unlock()
}

// Reset drops every memo entry.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.memo = make(map[string]entry)
	e.mu.Unlock()
}
