// Package catalog aggregates a snapshot of documents in an in-memory SQLite
// database. A Catalog is built per request and never persisted.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/notesift/internal/models"
)

const schemaSQL = `
CREATE TABLE notes (
	path     TEXT PRIMARY KEY,
	title    TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	modified DATETIME NOT NULL
);

CREATE TABLE tags (
	path TEXT NOT NULL,
	tag  TEXT NOT NULL,
	UNIQUE(path, tag)
);

CREATE INDEX idx_notes_category ON notes(category);
CREATE INDEX idx_tags_tag ON tags(tag);
`

// Catalog wraps an in-memory database holding one snapshot.
type Catalog struct {
	conn *sql.DB
}

// Count is one row of an aggregate.
type Count struct {
	Name  string `json:"name"`
	Notes int    `json:"notes"`
}

// Report summarises a snapshot.
type Report struct {
	Total      int     `json:"total"`
	Categories []Count `json:"categories"`
	Tags       []Count `json:"tags"`
}

// Open creates an empty catalog. Each connection to ":memory:" is a separate
// database, so the pool is pinned to one connection.
func Open() (*Catalog, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &Catalog{conn: conn}, nil
}

// Build opens a catalog and loads docs into it.
func Build(docs []*models.Document) (*Catalog, error) {
	c, err := Open()
	if err != nil {
		return nil, err
	}
	if err := c.Load(docs); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.conn.Close()
}

// Load inserts docs in a single transaction. Category paths are stored
// slash-joined; root-level notes have an empty category.
func (c *Catalog) Load(docs []*models.Document) error {
	tx, err := c.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	noteStmt, err := tx.Prepare(`INSERT OR REPLACE INTO notes (path, title, category, modified) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare note insert: %w", err)
	}
	defer noteStmt.Close()
	tagStmt, err := tx.Prepare(`INSERT OR IGNORE INTO tags (path, tag) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	for _, d := range docs {
		m := d.Metadata
		if _, err := noteStmt.Exec(d.Path, m.Title, strings.Join(m.Category, "/"), m.LastModified); err != nil {
			return fmt.Errorf("catalog: insert note: %w", err)
		}
		for _, tag := range m.Tags {
			if _, err := tagStmt.Exec(d.Path, tag); err != nil {
				return fmt.Errorf("catalog: insert tag: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Report returns totals per category and per tag, busiest first.
func (c *Catalog) Report() (*Report, error) {
	r := &Report{Categories: []Count{}, Tags: []Count{}}
	if err := c.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&r.Total); err != nil {
		return nil, fmt.Errorf("catalog: count notes: %w", err)
	}

	var err error
	r.Categories, err = c.counts(`
		SELECT category, count(*) AS n FROM notes
		GROUP BY category ORDER BY n DESC, category ASC`)
	if err != nil {
		return nil, err
	}
	r.Tags, err = c.counts(`
		SELECT tag, count(*) AS n FROM tags
		GROUP BY tag ORDER BY n DESC, tag ASC`)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Paths returns the paths of notes under category (a slash-joined prefix,
// empty for all) that carry tag (empty for any), ordered by path.
func (c *Catalog) Paths(category, tag string) ([]string, error) {
	q := `SELECT n.path FROM notes n WHERE 1=1`
	var args []any
	if category != "" {
		q += ` AND (n.category = ? OR n.category LIKE ? ESCAPE '\')`
		args = append(args, category, escapeLike(category)+"/%")
	}
	if tag != "" {
		q += ` AND EXISTS (SELECT 1 FROM tags t WHERE t.path = n.path AND t.tag = ?)`
		args = append(args, tag)
	}
	q += ` ORDER BY n.path`

	rows, err := c.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query paths: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("catalog: scan path: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *Catalog) counts(query string) ([]Count, error) {
	rows, err := c.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("catalog: aggregate: %w", err)
	}
	defer rows.Close()

	out := []Count{}
	for rows.Next() {
		var cnt Count
		if err := rows.Scan(&cnt.Name, &cnt.Notes); err != nil {
			return nil, fmt.Errorf("catalog: scan count: %w", err)
		}
		out = append(out, cnt)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
