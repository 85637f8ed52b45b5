// Package models defines the domain types for notesift.
package models

import "time"

// Metadata is the derived, searchable description of a document.
type Metadata struct {
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	Tags         []string  `json:"tags"`
	Category     []string  `json:"category"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
}

// Document is one parsed note. It is never mutated after construction.
type Document struct {
	Path     string   `json:"path"`
	Metadata Metadata `json:"metadata"`
	// Content is the raw file text, preamble included.
	Content string `json:"content"`
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := *d
	out.Metadata.Tags = append([]string{}, d.Metadata.Tags...)
	out.Metadata.Category = append([]string{}, d.Metadata.Category...)
	return &out
}
