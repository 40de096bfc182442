// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes marginalia tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/latazadehomero/cornell-marginalia/internal/annotation"
	"github.com/latazadehomero/cornell-marginalia/internal/apperr"
	"github.com/latazadehomero/cornell-marginalia/internal/itemservice"
	"github.com/latazadehomero/cornell-marginalia/internal/storage"
)

// Server wraps the MCP server with marginalia tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *itemservice.Service
	store storage.Provider
}

// New creates a new MCP server with all marginalia tools registered.
func New(svc *itemservice.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Cornell Marginalia",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_marginalia",
		mcp.WithDescription("Full-text search through annotation texts."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchMarginalia)

	s.mcp.AddTool(mcp.NewTool("list_marginalia",
		mcp.WithDescription("List indexed annotations, optionally for one document or only flashcard-flagged items."),
		mcp.WithString("document", mcp.Description("Optional document path (empty for all)")),
		mcp.WithBoolean("flashcards", mcp.Description("Only flashcard-flagged items")),
	), s.listMarginalia)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a Markdown document, annotation spans included. "+
			"Read the contract first via the get_annotation_contract tool or the "+
			"marginalia://annotation-format resource to interpret the spans."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/note.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("thread_tree",
		mcp.WithDescription("Build the cross-document thread forest from annotation links, optionally filtered."),
		mcp.WithString("query", mcp.Description("Optional text substring or exact color filter")),
	), s.threadTree)

	s.mcp.AddTool(mcp.NewTool("stitch_items",
		mcp.WithDescription("Link one annotation to another: assigns a block ID to the target "+
			"if missing and appends the reference inside the source span."),
		mcp.WithString("source_document", mcp.Required(), mcp.Description("Document holding the source annotation")),
		mcp.WithNumber("source_line", mcp.Required(), mcp.Description("1-based line of the source annotation")),
		mcp.WithString("target_document", mcp.Required(), mcp.Description("Document holding the target annotation")),
		mcp.WithNumber("target_line", mcp.Required(), mcp.Description("1-based line of the target annotation")),
	), s.stitchItems)

	s.mcp.AddTool(mcp.NewTool("generate_flashcards",
		mcp.WithDescription("Extract flashcard-flagged annotations in a document into its '### Flashcards' section."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
	), s.generateFlashcards)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all annotations linking to the given target reference."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target reference, e.g. plato#^ab12cd")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("wrap_annotation",
		mcp.WithDescription("Wrap text in annotation delimiters, producing a margin note span "+
			"ready to insert into a document."),
		mcp.WithString("text", mcp.Description("Note content (may be empty for a blank note)")),
	), s.wrapAnnotation)

	s.mcp.AddTool(mcp.NewTool("get_annotation_contract",
		mcp.WithDescription("Returns the canonical marginalia annotation format contract. "+
			"Call this before reading or writing annotated documents."),
	), s.getAnnotationContract)

	// Resource: annotation format contract.
	s.mcp.AddResource(
		mcp.NewResource("marginalia://annotation-format", "Annotation Format Contract",
			mcp.WithResourceDescription("Canonical annotation syntax embedded in Markdown documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAnnotationFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchMarginalia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listMarginalia(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document := req.GetString("document", "")
	flashcardsOnly := req.GetBool("flashcards", false)

	items, err := s.svc.Items(ctx, document, flashcardsOnly)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) threadTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	forest, err := s.svc.Threads(ctx, req.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(forest, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) stitchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	srcDoc, err := req.RequireString("source_document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	srcLine, err := req.RequireInt("source_line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tgtDoc, err := req.RequireString("target_document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tgtLine, err := req.RequireInt("target_line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// One source, one target: a single edge never needs confirmation.
	res, err := s.svc.Stitch(ctx,
		[]itemservice.ItemLocator{{Document: srcDoc, Line: srcLine}},
		[]itemservice.ItemLocator{{Document: tgtDoc, Line: tgtLine}},
		true)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError("annotation not found at the given location"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) generateFlashcards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.GenerateFlashcards(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("found %d flashcards, added %d new", res.Found, res.Added)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.Backlinks(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	out, _ := json.MarshalIndent(refs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) wrapAnnotation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(annotation.Wrap(req.GetString("text", ""))), nil
}

func (s *Server) getAnnotationContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AnnotationFormatContract), nil
}

func (s *Server) readAnnotationFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "marginalia://annotation-format",
			MIMEType: "text/markdown",
			Text:     AnnotationFormatContract,
		},
	}, nil
}
