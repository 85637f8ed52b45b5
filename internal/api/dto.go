package api

import (
	"github.com/starford/notesift/internal/catalog"
	"github.com/starford/notesift/internal/noteservice"
	"github.com/starford/notesift/internal/traversal"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// SearchResult is a single search hit in the API response.
type SearchResult = noteservice.SearchHit

// CategoryNode is one directory of the category tree.
type CategoryNode = traversal.CategoryTree

// StatsResponse is the catalog report.
type StatsResponse = catalog.Report

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
