// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes read-only notesift tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/noteservice"
)

const (
	categoriesURI = "notesift://categories"
	noteFormatURI = "notesift://note-format"
)

// Server wraps the MCP server with notesift tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *noteservice.Service
	logger *slog.Logger
}

// New creates a new MCP server with all notesift tools registered.
func New(svc *noteservice.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Server{svc: svc, logger: logger}

	s.mcp = server.NewMCPServer(
		"notesift",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Regular-expression search over notes. The pattern is matched against "+
			"filename, title, tags, category path and content joined by single spaces."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Go RE2 regular expression")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full raw content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note paths, optionally restricted to a category and its subcategories."),
		mcp.WithString("category", mcp.Description("Optional slash-separated category path (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("Return the category tree of the vault as nested {name, children} JSON."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the Markdown note format notesift reads titles and tags from."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(categoriesURI, "Category Tree",
			mcp.WithResourceDescription("Directory hierarchy of the vault."),
			mcp.WithMIMEType("application/json"),
		),
		s.readCategoriesResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("Markdown note format with optional YAML preamble."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// Serve runs the server over in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("mcpserver: serve: %w", err)
	}
	return nil
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern, err := req.RequireString("pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, pattern)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidPattern) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid pattern: %s", pattern)), nil
		}
		s.logger.Error("mcp: search failed", slog.String("pattern", pattern), slog.String("error", err.Error()))
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		case errors.Is(err, apperr.ErrInvalidPath):
			return mcp.NewToolResultError(fmt.Sprintf("invalid path: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := strings.Trim(req.GetString("category", ""), "/")
	items, err := s.svc.ListNotes(ctx, category, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := make([]string, 0, len(items))
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.categoriesJSON(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getNoteContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readCategoriesResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := s.categoriesJSON(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      categoriesURI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}

func (s *Server) readNoteFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) categoriesJSON(ctx context.Context) (string, error) {
	tree, err := s.svc.Categories(ctx)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return "", fmt.Errorf("mcpserver: encode categories: %w", err)
	}
	return string(out), nil
}
